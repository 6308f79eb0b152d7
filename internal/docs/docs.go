// Package docs registers the OpenAPI document served at /swagger.
// Regenerate with: swag init -g internal/app/router.go -o internal/docs
package docs

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
        "/users/me": {
            "get": {
                "security": [{"TelegramInitData": []}],
                "produces": ["application/json"],
                "tags": ["users"],
                "summary": "Get current user profile",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/models.Profile"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/middleware.ErrorResponse"}}
                }
            }
        },
        "/users/me/claim": {
            "post": {
                "security": [{"TelegramInitData": []}],
                "produces": ["application/json"],
                "tags": ["rewards"],
                "summary": "Claim the periodic reward",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/models.ClaimResult"}},
                    "409": {"description": "Tier pool exhausted", "schema": {"$ref": "#/definitions/middleware.ErrorResponse"}},
                    "429": {"description": "Cooldown active", "schema": {"$ref": "#/definitions/middleware.ErrorResponse"}}
                }
            }
        },
        "/users/me/referral": {
            "get": {
                "security": [{"TelegramInitData": []}],
                "produces": ["application/json"],
                "tags": ["referrals"],
                "summary": "Get own referral code",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/http.ReferralCodeResponse"}}
                }
            },
            "post": {
                "security": [{"TelegramInitData": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["referrals"],
                "summary": "Redeem a referral code",
                "parameters": [
                    {"description": "Referral code", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/http.ReferralRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/models.ReferralResult"}},
                    "400": {"description": "Invalid or own code", "schema": {"$ref": "#/definitions/middleware.ErrorResponse"}},
                    "409": {"description": "Referral already applied", "schema": {"$ref": "#/definitions/middleware.ErrorResponse"}}
                }
            }
        },
        "/users/me/wallet": {
            "put": {
                "security": [{"TelegramInitData": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["users"],
                "summary": "Connect a wallet",
                "parameters": [
                    {"description": "Wallet address", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/http.WalletRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/models.WalletResult"}},
                    "400": {"description": "Invalid wallet format", "schema": {"$ref": "#/definitions/middleware.ErrorResponse"}}
                }
            }
        },
        "/users/me/tasks": {
            "get": {
                "security": [{"TelegramInitData": []}],
                "produces": ["application/json"],
                "tags": ["tasks"],
                "summary": "List tasks",
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/models.TaskView"}}}
                }
            }
        },
        "/users/me/tasks/{category}/{index}/complete": {
            "post": {
                "security": [{"TelegramInitData": []}],
                "produces": ["application/json"],
                "tags": ["tasks"],
                "summary": "Complete a task",
                "parameters": [
                    {"enum": ["original", "partnership", "collaborator"], "type": "string", "description": "Task category", "name": "category", "in": "path", "required": true},
                    {"type": "integer", "description": "Task index within the category", "name": "index", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/models.TaskResult"}},
                    "404": {"description": "Unknown task", "schema": {"$ref": "#/definitions/middleware.ErrorResponse"}},
                    "409": {"description": "Task already completed", "schema": {"$ref": "#/definitions/middleware.ErrorResponse"}}
                }
            }
        },
        "/users/me/rank": {
            "get": {
                "security": [{"TelegramInitData": []}],
                "produces": ["application/json"],
                "tags": ["ranking"],
                "summary": "Get own rank",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/models.Position"}},
                    "404": {"description": "User has no ledger record yet", "schema": {"$ref": "#/definitions/middleware.ErrorResponse"}}
                }
            }
        },
        "/leaderboard": {
            "get": {
                "security": [{"TelegramInitData": []}],
                "produces": ["application/json"],
                "tags": ["ranking"],
                "summary": "Tier leaderboard",
                "parameters": [
                    {"type": "integer", "description": "Tier level 1-7", "name": "tier", "in": "query", "required": true},
                    {"type": "integer", "description": "Maximum entries (default 100, max 1000)", "name": "limit", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/models.Leaderboard"}},
                    "404": {"description": "Unknown tier", "schema": {"$ref": "#/definitions/middleware.ErrorResponse"}}
                }
            }
        },
        "/admin/stats": {
            "get": {
                "security": [{"TelegramInitData": []}],
                "produces": ["application/json"],
                "tags": ["admin"],
                "summary": "Ledger statistics",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/models.Stats"}},
                    "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/middleware.ErrorResponse"}}
                }
            }
        },
        "/admin/export": {
            "get": {
                "security": [{"TelegramInitData": []}],
                "produces": ["application/json"],
                "tags": ["admin"],
                "summary": "Export users",
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/models.ExportRow"}}},
                    "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/middleware.ErrorResponse"}}
                }
            }
        },
        "/admin/pools/{tier}/reset": {
            "post": {
                "security": [{"TelegramInitData": []}],
                "produces": ["application/json"],
                "tags": ["admin"],
                "summary": "Refill a tier pool",
                "parameters": [
                    {"type": "integer", "description": "Tier level 1-7", "name": "tier", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "object", "additionalProperties": true}},
                    "404": {"description": "Unknown tier", "schema": {"$ref": "#/definitions/middleware.ErrorResponse"}}
                }
            }
        }
    },
    "definitions": {
        "http.ReferralRequest": {
            "type": "object",
            "required": ["code"],
            "properties": {"code": {"type": "string", "example": "REF123456"}}
        },
        "http.ReferralCodeResponse": {
            "type": "object",
            "properties": {"code": {"type": "string"}, "message": {"type": "string"}}
        },
        "http.WalletRequest": {
            "type": "object",
            "properties": {"address": {"type": "string", "example": "gxr1qpzry9x8gf2tvdw0"}}
        },
        "middleware.ErrorResponse": {
            "type": "object",
            "properties": {
                "success": {"type": "boolean"},
                "error": {
                    "type": "object",
                    "properties": {
                        "code": {"type": "string"},
                        "message": {"type": "string"},
                        "details": {"type": "object", "additionalProperties": true}
                    }
                },
                "timestamp": {"type": "string"},
                "request_id": {"type": "string"},
                "path": {"type": "string"},
                "method": {"type": "string"}
            }
        },
        "models.ClaimResult": {
            "type": "object",
            "properties": {
                "user_id": {"type": "string"},
                "points": {"type": "integer"},
                "reward": {"type": "integer"},
                "tier": {"type": "string"},
                "tier_level": {"type": "integer"},
                "badge": {"type": "string"},
                "current_tier": {"type": "string"},
                "last_claim_at": {"type": "integer"},
                "next_claim_at": {"type": "integer"},
                "message": {"type": "string"},
                "tier_promotion": {"type": "boolean"}
            }
        },
        "models.ReferralResult": {
            "type": "object",
            "properties": {
                "user_id": {"type": "string"},
                "referrer_id": {"type": "string"},
                "points": {"type": "integer"},
                "referrer_points": {"type": "integer"},
                "reward": {"type": "integer"},
                "tier": {"type": "string"},
                "badge": {"type": "string"},
                "message": {"type": "string"}
            }
        },
        "models.WalletResult": {
            "type": "object",
            "properties": {
                "user_id": {"type": "string"},
                "wallet_address": {"type": "string"},
                "message": {"type": "string"}
            }
        },
        "models.TaskView": {
            "type": "object",
            "properties": {
                "category": {"type": "string"},
                "index": {"type": "integer"},
                "name": {"type": "string"},
                "reward": {"type": "integer"},
                "completed": {"type": "boolean"}
            }
        },
        "models.TaskResult": {
            "type": "object",
            "properties": {
                "user_id": {"type": "string"},
                "category": {"type": "string"},
                "index": {"type": "integer"},
                "reward": {"type": "integer"},
                "points": {"type": "integer"},
                "tier": {"type": "string"},
                "badge": {"type": "string"},
                "message": {"type": "string"}
            }
        },
        "models.Profile": {
            "type": "object",
            "properties": {
                "user_id": {"type": "string"},
                "display_name": {"type": "string"},
                "points": {"type": "integer"},
                "tier": {"type": "string"},
                "tier_level": {"type": "integer"},
                "badge": {"type": "string"},
                "next_tier_points": {"type": "integer"},
                "progress": {"type": "integer"},
                "rank": {"type": "integer"},
                "total_ranked": {"type": "integer"},
                "can_claim": {"type": "boolean"},
                "next_claim_in": {"type": "integer"},
                "referral_code": {"type": "string"},
                "referral_applied": {"type": "boolean"},
                "referred_by": {"type": "string"},
                "total_referrals": {"type": "integer"},
                "wallet_address": {"type": "string"},
                "message": {"type": "string"}
            }
        },
        "models.Position": {
            "type": "object",
            "properties": {
                "user_id": {"type": "string"},
                "rank": {"type": "integer"},
                "total": {"type": "integer"},
                "points": {"type": "integer"},
                "tier": {"type": "string"}
            }
        },
        "models.Entry": {
            "type": "object",
            "properties": {
                "rank": {"type": "integer"},
                "user_id": {"type": "string"},
                "points": {"type": "integer"},
                "display_name": {"type": "string"},
                "tier": {"type": "string"},
                "badge": {"type": "string"}
            }
        },
        "models.Leaderboard": {
            "type": "object",
            "properties": {
                "tier_level": {"type": "integer"},
                "tier": {"type": "string"},
                "total_in_tier": {"type": "integer"},
                "entries": {"type": "array", "items": {"$ref": "#/definitions/models.Entry"}}
            }
        },
        "models.PoolUsage": {
            "type": "object",
            "properties": {
                "tier_level": {"type": "integer"},
                "tier": {"type": "string"},
                "capacity": {"type": "integer"},
                "used": {"type": "integer"},
                "remaining": {"type": "integer"},
                "percent": {"type": "number"}
            }
        },
        "models.Stats": {
            "type": "object",
            "properties": {
                "total_users": {"type": "integer"},
                "total_distributed": {"type": "integer"},
                "users_with_wallet": {"type": "integer"},
                "total_referrals": {"type": "integer"},
                "users_per_tier": {"type": "object", "additionalProperties": {"type": "integer"}},
                "pools": {"type": "array", "items": {"$ref": "#/definitions/models.PoolUsage"}},
                "pool_usage_percent": {"type": "number"},
                "total_pool_capacity": {"type": "integer"},
                "total_pool_used": {"type": "integer"}
            }
        },
        "models.ExportRow": {
            "type": "object",
            "properties": {
                "user_id": {"type": "string"},
                "points": {"type": "integer"},
                "wallet": {"type": "string"}
            }
        }
    },
    "securityDefinitions": {
        "TelegramInitData": {
            "description": "Telegram Mini App init_data string for authentication",
            "type": "apiKey",
            "name": "init_data",
            "in": "header"
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/api/v1",
	Schemes:          []string{},
	Title:            "Evolution Ledger API",
	Description:      "Reward ledger for the Telegram Mini App: periodic claims, referrals, tasks, wallets and tier leaderboards. User endpoints require init_data authentication.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
