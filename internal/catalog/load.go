// Feedgraph - Media Catalog Affinity Graph and Feed Ranking
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/feedgraph

package catalog

import (
	"bytes"
	"fmt"
	"os"

	"github.com/goccy/go-json"

	"github.com/tomtom215/feedgraph/internal/models"
)

// rawAsset is one entry of the catalog export.
type rawAsset struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Year        int    `json:"year"`
	Genres      []struct {
		Name string `json:"name"`
	} `json:"genres"`
	Credits []struct {
		Person *struct {
			Name string `json:"name"`
		} `json:"person"`
	} `json:"credits"`
	Images []struct {
		AspectRatio []struct {
			Resolutions []models.ImageVariant `json:"resolutions"`
		} `json:"aspectRatio"`
	} `json:"images"`
}

type rawExport struct {
	Data struct {
		ListAssets struct {
			Items []rawAsset `json:"items"`
		} `json:"listAssets"`
	} `json:"data"`
}

// Load reads the catalog export and the feed membership table.
func Load(itemsPath, feedsPath string) (*Index, error) {
	data, err := os.ReadFile(itemsPath)
	if err != nil {
		return nil, fmt.Errorf("read catalog %s: %w", itemsPath, err)
	}
	items, err := ParseItems(data)
	if err != nil {
		return nil, fmt.Errorf("parse catalog %s: %w", itemsPath, err)
	}

	feeds := map[string][]string{}
	if feedsPath != "" {
		data, err = os.ReadFile(feedsPath)
		if err != nil {
			return nil, fmt.Errorf("read feeds %s: %w", feedsPath, err)
		}
		if feeds, err = ParseFeeds(data); err != nil {
			return nil, fmt.Errorf("parse feeds %s: %w", feedsPath, err)
		}
	}
	return NewIndex(items, feeds), nil
}

// ParseItems decodes either the full export envelope
// {"data":{"listAssets":{"items":[...]}}} or a bare array of assets.
func ParseItems(data []byte) ([]models.Item, error) {
	var assets []rawAsset
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		if err := json.Unmarshal(trimmed, &assets); err != nil {
			return nil, err
		}
	} else {
		var export rawExport
		if err := json.Unmarshal(trimmed, &export); err != nil {
			return nil, err
		}
		assets = export.Data.ListAssets.Items
	}

	items := make([]models.Item, 0, len(assets))
	for i := range assets {
		items = append(items, assets[i].toItem())
	}
	return items, nil
}

func (a *rawAsset) toItem() models.Item {
	item := models.Item{
		ID:          a.ID,
		Title:       a.Title,
		Description: a.Description,
		Year:        a.Year,
		Genre:       make([]string, 0, len(a.Genres)),
		Cast:        make([]string, 0, len(a.Credits)),
	}
	for _, g := range a.Genres {
		item.Genre = append(item.Genre, g.Name)
	}
	for _, c := range a.Credits {
		if c.Person != nil {
			item.Cast = append(item.Cast, c.Person.Name)
		}
	}
	for _, img := range a.Images {
		for _, ar := range img.AspectRatio {
			item.Images = append(item.Images, ar.Resolutions...)
		}
	}
	return item
}

// ParseFeeds decodes the membership table {"FEED_ID": ["item id", ...]}.
func ParseFeeds(data []byte) (map[string][]string, error) {
	var feeds map[string][]string
	if err := json.Unmarshal(data, &feeds); err != nil {
		return nil, err
	}
	if feeds == nil {
		feeds = map[string][]string{}
	}
	return feeds, nil
}
