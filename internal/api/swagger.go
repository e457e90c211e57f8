// Feedgraph - Media Catalog Affinity Graph and Feed Ranking
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/feedgraph

package api

import "github.com/swaggo/swag"

// SwaggerInfo is served at /swagger/doc.json. Every route SetupChi mounts
// under /api/v1 or /feed must have a path entry in docTemplate.
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{"http", "https"},
	Title:            "Feedgraph API",
	Description:      "Affinity graph storage and anchor-ranked feeds for a media catalog.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "license": {
            "name": "AGPL-3.0-or-later",
            "url": "https://www.gnu.org/licenses/agpl-3.0.html"
        },
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/api/v1/health": {
            "get": {
                "tags": ["Core"],
                "summary": "Get service health",
                "produces": ["application/json"],
                "responses": {"200": {"description": "Health status"}}
            }
        },
        "/api/v1/health/live": {
            "get": {
                "tags": ["Core"],
                "summary": "Liveness check",
                "responses": {"200": {"description": "Process is alive"}}
            }
        },
        "/api/v1/health/ready": {
            "get": {
                "tags": ["Core"],
                "summary": "Readiness check",
                "responses": {
                    "200": {"description": "Store is reachable"},
                    "503": {"description": "Store is unavailable"}
                }
            }
        },
        "/api/v1/feeds": {
            "get": {
                "tags": ["Feeds"],
                "summary": "List configured feeds",
                "produces": ["application/json"],
                "responses": {"200": {"description": "Feed definitions"}}
            }
        },
        "/api/v1/feeds/{feedID}": {
            "get": {
                "tags": ["Feeds"],
                "summary": "Get a feed ranked by affinity to an anchor item",
                "produces": ["application/json"],
                "parameters": [
                    {"type": "string", "name": "feedID", "in": "path", "required": true},
                    {"type": "string", "name": "anchor", "in": "query", "description": "Anchor item id (alias lastWatchedItem)"}
                ],
                "responses": {
                    "200": {"description": "Ranked feed"},
                    "404": {"description": "Unknown feed"},
                    "503": {"description": "Edge store unavailable"}
                }
            }
        },
        "/feed/{feedID}": {
            "get": {
                "tags": ["Feeds"],
                "summary": "Get a ranked feed as a bare document",
                "produces": ["application/json"],
                "parameters": [
                    {"type": "string", "name": "feedID", "in": "path", "required": true},
                    {"type": "string", "name": "lastWatchedItem", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "Ranked feed"},
                    "404": {"description": "Unknown feed"}
                }
            }
        },
        "/api/v1/ingest": {
            "post": {
                "tags": ["Ingest"],
                "summary": "Start a graph rebuild",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "responses": {
                    "200": {"description": "Run finished (wait=true)"},
                    "202": {"description": "Run started"},
                    "409": {"description": "A run is already in progress"}
                }
            }
        },
        "/api/v1/ingest/status": {
            "get": {
                "tags": ["Ingest"],
                "summary": "Get the current or last ingestion run",
                "responses": {"200": {"description": "Run status"}}
            }
        },
        "/api/v1/items": {
            "get": {
                "tags": ["Graph"],
                "summary": "List graph items",
                "parameters": [
                    {"type": "integer", "name": "limit", "in": "query"},
                    {"type": "integer", "name": "offset", "in": "query"}
                ],
                "responses": {"200": {"description": "Items"}}
            },
            "post": {
                "tags": ["Graph"],
                "summary": "Create a graph item",
                "consumes": ["application/json"],
                "responses": {
                    "201": {"description": "Item created"},
                    "200": {"description": "Item already existed"}
                }
            }
        },
        "/api/v1/items/{id}": {
            "get": {
                "tags": ["Graph"],
                "summary": "Get a graph item",
                "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}],
                "responses": {"200": {"description": "Item"}, "404": {"description": "Not found"}}
            },
            "patch": {
                "tags": ["Graph"],
                "summary": "Update a graph item",
                "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}],
                "responses": {"200": {"description": "Item"}, "404": {"description": "Not found"}}
            },
            "delete": {
                "tags": ["Graph"],
                "summary": "Delete a graph item and its edges",
                "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}],
                "responses": {"204": {"description": "Deleted"}, "404": {"description": "Not found"}}
            }
        },
        "/api/v1/items/{id}/outgoing": {
            "get": {
                "tags": ["Graph"],
                "summary": "List outgoing edges",
                "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}],
                "responses": {"200": {"description": "Edges"}}
            }
        },
        "/api/v1/items/{id}/incoming": {
            "get": {
                "tags": ["Graph"],
                "summary": "List incoming edges",
                "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}],
                "responses": {"200": {"description": "Edges"}}
            }
        },
        "/api/v1/edges": {
            "delete": {
                "tags": ["Graph"],
                "summary": "Delete every edge",
                "responses": {"200": {"description": "Edges removed"}}
            }
        },
        "/api/v1/edges/{from}/{to}": {
            "get": {
                "tags": ["Graph"],
                "summary": "Get an edge",
                "parameters": [
                    {"type": "string", "name": "from", "in": "path", "required": true},
                    {"type": "string", "name": "to", "in": "path", "required": true}
                ],
                "responses": {"200": {"description": "Edge"}, "404": {"description": "Not found"}}
            },
            "put": {
                "tags": ["Graph"],
                "summary": "Create or replace an edge",
                "parameters": [
                    {"type": "string", "name": "from", "in": "path", "required": true},
                    {"type": "string", "name": "to", "in": "path", "required": true}
                ],
                "responses": {"200": {"description": "Edge"}, "400": {"description": "Invalid weight"}}
            },
            "patch": {
                "tags": ["Graph"],
                "summary": "Update an edge weight",
                "parameters": [
                    {"type": "string", "name": "from", "in": "path", "required": true},
                    {"type": "string", "name": "to", "in": "path", "required": true}
                ],
                "responses": {"200": {"description": "Edge"}, "404": {"description": "Not found"}}
            },
            "delete": {
                "tags": ["Graph"],
                "summary": "Delete an edge",
                "parameters": [
                    {"type": "string", "name": "from", "in": "path", "required": true},
                    {"type": "string", "name": "to", "in": "path", "required": true}
                ],
                "responses": {"204": {"description": "Deleted"}, "404": {"description": "Not found"}}
            }
        },
        "/api/v1/rankings/top": {
            "get": {
                "tags": ["Graph"],
                "summary": "List the strongest edges",
                "parameters": [{"type": "integer", "name": "limit", "in": "query"}],
                "responses": {"200": {"description": "Edges"}}
            }
        },
        "/api/v1/stats/endpoints": {
            "get": {
                "tags": ["Core"],
                "summary": "Per-endpoint latency statistics",
                "responses": {"200": {"description": "Statistics"}}
            }
        }
    }
}`
