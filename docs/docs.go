// Package docs registers the OpenAPI document served under /swagger.
// Regenerate with `swag init -g internal/api/router.go`.
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "securityDefinitions": {
        "BearerAuth": {
            "type": "apiKey",
            "name": "Authorization",
            "in": "header"
        }
    },
    "paths": {
        "/auth/register": {"post": {"tags": ["auth"], "summary": "Register a new user", "responses": {"201": {"description": "Created"}, "400": {"description": "Bad Request"}, "409": {"description": "Conflict"}}}},
        "/auth/login": {"post": {"tags": ["auth"], "summary": "Login", "responses": {"200": {"description": "OK"}, "401": {"description": "Unauthorized"}}}},
        "/auth/me": {"get": {"security": [{"BearerAuth": []}], "tags": ["auth"], "summary": "Current user profile", "responses": {"200": {"description": "OK"}}}},
        "/credits/balance": {"get": {"security": [{"BearerAuth": []}], "tags": ["credits"], "summary": "Current credit balance", "responses": {"200": {"description": "OK"}}}},
        "/credits/history": {"get": {"security": [{"BearerAuth": []}], "tags": ["credits"], "summary": "Ledger history", "responses": {"200": {"description": "OK"}}}},
        "/sessions": {"post": {"security": [{"BearerAuth": []}], "tags": ["sessions"], "summary": "Book a session with a provider", "responses": {"201": {"description": "Created"}, "422": {"description": "Insufficient credits"}}}},
        "/sessions/my": {"get": {"security": [{"BearerAuth": []}], "tags": ["sessions"], "summary": "List the caller's sessions", "responses": {"200": {"description": "OK"}}}},
        "/sessions/{id}": {
            "get": {"security": [{"BearerAuth": []}], "tags": ["sessions"], "summary": "Get a session", "responses": {"200": {"description": "OK"}, "403": {"description": "Forbidden"}, "404": {"description": "Not Found"}}},
            "patch": {"security": [{"BearerAuth": []}], "tags": ["sessions"], "summary": "Update session status and/or meeting link", "responses": {"200": {"description": "OK"}, "422": {"description": "Invalid transition"}}}
        },
        "/sessions/{id}/accept": {"post": {"security": [{"BearerAuth": []}], "tags": ["sessions"], "summary": "Provider accepts a pending session", "responses": {"200": {"description": "OK"}}}},
        "/sessions/{id}/reject": {"post": {"security": [{"BearerAuth": []}], "tags": ["sessions"], "summary": "Provider rejects a pending session", "responses": {"200": {"description": "OK"}}}},
        "/sessions/{id}/cancel": {"post": {"security": [{"BearerAuth": []}], "tags": ["sessions"], "summary": "Either participant cancels a session", "responses": {"200": {"description": "OK"}}}},
        "/sessions/{id}/confirm": {"post": {"security": [{"BearerAuth": []}], "tags": ["sessions"], "summary": "Confirm a session took place", "responses": {"200": {"description": "OK"}}}},
        "/sessions/{id}/settle": {"post": {"security": [{"BearerAuth": []}], "tags": ["sessions"], "summary": "Retry the credit transfer of a fully confirmed session", "responses": {"200": {"description": "OK"}}}},
        "/sessions/{id}/meeting-link": {"put": {"security": [{"BearerAuth": []}], "tags": ["sessions"], "summary": "Set the meeting link of an accepted session", "responses": {"200": {"description": "OK"}}}},
        "/notifications": {"get": {"security": [{"BearerAuth": []}], "tags": ["notifications"], "summary": "List notifications, newest first", "responses": {"200": {"description": "OK"}}}},
        "/notifications/unread-count": {"get": {"security": [{"BearerAuth": []}], "tags": ["notifications"], "summary": "Count unread notifications", "responses": {"200": {"description": "OK"}}}},
        "/notifications/{id}/read": {"patch": {"security": [{"BearerAuth": []}], "tags": ["notifications"], "summary": "Mark one notification as read", "responses": {"204": {"description": "No Content"}}}},
        "/notifications/read-all": {"patch": {"security": [{"BearerAuth": []}], "tags": ["notifications"], "summary": "Mark every notification as read", "responses": {"200": {"description": "OK"}}}},
        "/sessions/{id}/review": {"post": {"security": [{"BearerAuth": []}], "tags": ["reviews"], "summary": "Review the other participant of a completed session", "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}], "responses": {"201": {"description": "Created"}, "400": {"description": "Bad Request"}, "403": {"description": "Forbidden"}, "404": {"description": "Not Found"}, "409": {"description": "Conflict"}}}},
        "/sessions/{id}/reviews": {"get": {"security": [{"BearerAuth": []}], "tags": ["reviews"], "summary": "List the reviews left on a session", "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}], "responses": {"200": {"description": "OK"}, "404": {"description": "Not Found"}}}},
        "/users/{id}/reviews": {"get": {"security": [{"BearerAuth": []}], "tags": ["reviews"], "summary": "List reviews a user received, with their reputation", "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}], "responses": {"200": {"description": "OK"}}}},
        "/ws/webrtc": {"get": {"tags": ["signaling"], "summary": "WebRTC signaling websocket", "responses": {"101": {"description": "Switching Protocols"}}}},
        "/admin/signaling/rooms": {"get": {"security": [{"BearerAuth": []}], "tags": ["admin"], "summary": "Current signaling rooms", "responses": {"200": {"description": "OK"}}}},
        "/health": {"get": {"tags": ["health"], "summary": "Liveness check", "responses": {"200": {"description": "OK"}}}},
        "/health/ready": {"get": {"tags": ["health"], "summary": "Readiness check", "responses": {"200": {"description": "OK"}, "503": {"description": "Service Unavailable"}}}}
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "SkillSwap API",
	Description:      "Time-credit skill exchange: accounts, credit ledger, session lifecycle, notifications and WebRTC signaling.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
