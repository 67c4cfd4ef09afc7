// Package docs holds the OpenAPI document served at /swagger.
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
        "/accounts": {
            "get": {"tags": ["accounts"], "summary": "List accounts", "produces": ["application/json"], "responses": {"200": {"description": "OK"}}},
            "post": {"tags": ["accounts"], "summary": "Create an account", "consumes": ["application/json"], "produces": ["application/json"], "responses": {"201": {"description": "Account created"}, "400": {"description": "Invalid input"}}}
        },
        "/accounts/{id}": {
            "get": {"tags": ["accounts"], "summary": "Get an account", "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}], "responses": {"200": {"description": "OK"}, "404": {"description": "Account not found"}}},
            "put": {"tags": ["accounts"], "summary": "Update an account", "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}], "responses": {"200": {"description": "OK"}, "404": {"description": "Account not found"}}},
            "delete": {"tags": ["accounts"], "summary": "Delete an account", "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}], "responses": {"200": {"description": "Account deleted"}, "404": {"description": "Account not found"}}}
        },
        "/accounts/{id}/balance": {
            "put": {"tags": ["accounts"], "summary": "Overwrite a stored balance", "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}], "responses": {"200": {"description": "OK"}, "404": {"description": "Account not found"}}}
        },
        "/accounts/{id}/reconcile": {
            "post": {"tags": ["accounts"], "summary": "Reconcile a balance against its movements", "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}, {"type": "boolean", "name": "fix", "in": "query"}], "responses": {"200": {"description": "OK"}, "404": {"description": "Account not found"}}}
        },
        "/accounts/{id}/transactions": {
            "get": {"tags": ["accounts"], "summary": "List transactions of an account by date pattern", "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}, {"type": "string", "name": "pattern", "in": "query", "required": true}], "responses": {"200": {"description": "OK"}}}
        },
        "/accounts/{id}/investment-transactions": {
            "get": {"tags": ["investments"], "summary": "List trades of an account", "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}], "responses": {"200": {"description": "OK"}}}
        },
        "/transactions": {
            "get": {"tags": ["transactions"], "summary": "List transactions", "responses": {"200": {"description": "OK"}}},
            "post": {"tags": ["transactions"], "summary": "Record a transaction", "responses": {"201": {"description": "Movement recorded"}, "400": {"description": "Invalid input"}, "422": {"description": "No price available"}}}
        },
        "/transactions/{id}": {
            "get": {"tags": ["transactions"], "summary": "Get a transaction", "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}], "responses": {"200": {"description": "OK"}, "404": {"description": "Transaction not found"}}},
            "put": {"tags": ["transactions"], "summary": "Update a transaction", "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}], "responses": {"200": {"description": "OK"}, "400": {"description": "Transaction not editable"}}},
            "delete": {"tags": ["transactions"], "summary": "Delete a transaction", "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}], "responses": {"200": {"description": "Transaction deleted"}}}
        },
        "/investment-transactions/{id}": {
            "get": {"tags": ["investments"], "summary": "Get a trade", "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}], "responses": {"200": {"description": "OK"}, "404": {"description": "Trade not found"}}},
            "delete": {"tags": ["investments"], "summary": "Delete a trade", "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}], "responses": {"200": {"description": "Trade deleted"}}}
        },
        "/transfers": {
            "post": {"tags": ["transfers"], "summary": "Create a transfer", "responses": {"201": {"description": "Transfer created"}, "400": {"description": "Invalid input"}}}
        },
        "/transfers/{id}": {
            "get": {"tags": ["transfers"], "summary": "Get a transfer", "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}], "responses": {"200": {"description": "OK"}, "404": {"description": "Transfer not found"}}},
            "delete": {"tags": ["transfers"], "summary": "Delete a transfer", "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}], "responses": {"200": {"description": "Transfer deleted"}}}
        },
        "/schedules": {
            "get": {"tags": ["schedules"], "summary": "List recurring schedules", "responses": {"200": {"description": "OK"}}},
            "post": {"tags": ["schedules"], "summary": "Create a recurring schedule", "responses": {"201": {"description": "Schedule created"}, "400": {"description": "Invalid schedule"}}}
        },
        "/schedules/{id}": {
            "get": {"tags": ["schedules"], "summary": "Get a recurring schedule", "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}], "responses": {"200": {"description": "OK"}, "404": {"description": "Schedule not found"}}},
            "put": {"tags": ["schedules"], "summary": "Update a recurring schedule", "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}], "responses": {"200": {"description": "OK"}, "400": {"description": "Invalid schedule"}}},
            "delete": {"tags": ["schedules"], "summary": "Delete a recurring schedule", "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}], "responses": {"200": {"description": "Schedule deleted"}}}
        },
        "/estimates": {
            "get": {"tags": ["estimates"], "summary": "Estimate spending", "parameters": [{"type": "string", "name": "horizon", "in": "query"}, {"type": "string", "name": "currency", "in": "query"}, {"type": "array", "items": {"type": "string"}, "collectionFormat": "multi", "name": "category_id", "in": "query"}, {"type": "string", "name": "today", "in": "query"}], "responses": {"200": {"description": "OK"}}}
        },
        "/pipeline/recurring/process": {
            "post": {"security": [{"ApiKeyAuth": []}], "tags": ["pipeline"], "summary": "Process due recurring schedules", "parameters": [{"type": "string", "name": "date", "in": "query"}], "responses": {"200": {"description": "OK"}, "401": {"description": "Invalid API key"}, "503": {"description": "Pipeline not configured"}}}
        }
    },
    "securityDefinitions": {
        "ApiKeyAuth": {
            "description": "Key for the job-runner pipeline endpoints.",
            "type": "apiKey",
            "name": "X-API-Key",
            "in": "header"
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "localhost:8080",
	BasePath:         "/api/v1",
	Schemes:          []string{},
	Title:            "Finledger API",
	Description:      "Finledger keeps cash and investment account balances, transfers between them, recurring schedules, and spending estimates.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
