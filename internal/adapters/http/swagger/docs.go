// Package swagger serves the OpenAPI document and Swagger UI.
package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "contact": {},
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/api/parks": {
            "get": {
                "produces": ["application/json"],
                "tags": ["parks"],
                "summary": "List or search parks",
                "parameters": [
                    {"type": "string", "description": "fuzzy name or state query", "name": "q", "in": "query"},
                    {"type": "integer", "description": "maximum search results", "name": "limit", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/model.Park"}}}
                }
            }
        },
        "/api/parks/{id}": {
            "get": {
                "produces": ["application/json"],
                "tags": ["parks"],
                "summary": "Get a park",
                "parameters": [
                    {"type": "integer", "description": "park id", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/model.Park"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/api.errorResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/api.errorResponse"}}
                }
            }
        },
        "/api/matchup": {
            "get": {
                "produces": ["application/json"],
                "tags": ["votes"],
                "summary": "Pick two distinct parks at random",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/model.Matchup"}},
                    "409": {"description": "Fewer than two parks", "schema": {"$ref": "#/definitions/api.errorResponse"}}
                }
            }
        },
        "/api/ranking": {
            "get": {
                "produces": ["application/json"],
                "tags": ["parks"],
                "summary": "Parks in rank order",
                "parameters": [
                    {"type": "integer", "description": "return only the top N", "name": "limit", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/model.Park"}}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/api.errorResponse"}}
                }
            }
        },
        "/api/vote": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["votes"],
                "summary": "Record a head-to-head result",
                "parameters": [
                    {"type": "string", "description": "replays with the same key are rejected", "name": "Idempotency-Key", "in": "header"},
                    {"description": "ballot", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/api.voteRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/api.voteResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/api.errorResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/api.errorResponse"}},
                    "409": {"description": "Duplicate", "schema": {"$ref": "#/definitions/api.errorResponse"}},
                    "413": {"description": "Body Too Large", "schema": {"$ref": "#/definitions/api.errorResponse"}},
                    "429": {"description": "Backpressure", "schema": {"$ref": "#/definitions/api.errorResponse"}},
                    "503": {"description": "Unavailable", "schema": {"$ref": "#/definitions/api.errorResponse"}},
                    "504": {"description": "Timeout", "schema": {"$ref": "#/definitions/api.errorResponse"}}
                }
            }
        },
        "/api/votes/recent": {
            "get": {
                "produces": ["application/json"],
                "tags": ["votes"],
                "summary": "Newest votes first",
                "parameters": [
                    {"type": "integer", "description": "number of votes", "name": "limit", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/model.Vote"}}}
                }
            }
        },
        "/readyz": {
            "get": {
                "produces": ["application/json"],
                "tags": ["ops"],
                "summary": "Readiness",
                "responses": {
                    "200": {"description": "OK"},
                    "503": {"description": "Unavailable", "schema": {"$ref": "#/definitions/api.errorResponse"}}
                }
            }
        },
        "/stats": {
            "get": {
                "produces": ["application/json"],
                "tags": ["ops"],
                "summary": "Service statistics",
                "responses": {"200": {"description": "OK", "schema": {"type": "object"}}}
            }
        }
    },
    "definitions": {
        "api.errorResponse": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "message": {"type": "string"}
            }
        },
        "api.voteRequest": {
            "type": "object",
            "required": ["winnerId", "loserId"],
            "properties": {
                "winnerId": {"type": "integer"},
                "loserId": {"type": "integer"}
            }
        },
        "api.voteResponse": {
            "type": "object",
            "properties": {
                "message": {"type": "string"},
                "winnerNewRating": {"type": "integer"},
                "loserNewRating": {"type": "integer"},
                "vote": {"$ref": "#/definitions/model.Vote"},
                "winner": {"$ref": "#/definitions/model.Park"},
                "loser": {"$ref": "#/definitions/model.Park"}
            }
        },
        "model.Matchup": {
            "type": "object",
            "properties": {
                "park1": {"$ref": "#/definitions/model.Park"},
                "park2": {"$ref": "#/definitions/model.Park"}
            }
        },
        "model.Park": {
            "type": "object",
            "properties": {
                "id": {"type": "integer"},
                "name": {"type": "string"},
                "description": {"type": "string"},
                "state": {"type": "string"},
                "imageUrl": {"type": "string"},
                "icon": {"type": "string"},
                "established": {"type": "string", "x-nullable": true},
                "elo": {"type": "integer"},
                "previousElo": {"type": "integer", "x-nullable": true},
                "rank": {"type": "integer"},
                "previousRank": {"type": "integer", "x-nullable": true}
            }
        },
        "model.Vote": {
            "type": "object",
            "properties": {
                "id": {"type": "integer"},
                "winnerId": {"type": "integer"},
                "loserId": {"type": "integer"},
                "winnerEloBefore": {"type": "integer"},
                "loserEloBefore": {"type": "integer"},
                "winnerEloAfter": {"type": "integer"},
                "loserEloAfter": {"type": "integer"},
                "timestamp": {"type": "string", "format": "date-time"}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it.
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "Park Rank API",
	Description:      "Head-to-head voting and Elo ranking for national parks.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
