package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// RegisterSwagger registers minimal Swagger/OpenAPI endpoints.
// - GET /swagger/index.html  -> a small HTML page that loads the OpenAPI JSON
// - GET /swagger/doc.json    -> machine-readable OpenAPI JSON
func RegisterSwagger(rg *gin.Engine) {
	rg.GET("/swagger/index.html", func(c *gin.Context) {
		c.Header("Content-Type", "text/html; charset=utf-8")
		c.String(http.StatusOK, swaggerHTML)
	})

	rg.GET("/swagger/doc.json", func(c *gin.Context) {
		c.Data(http.StatusOK, "application/json", []byte(swaggerJSON))
	})
}

const swaggerHTML = `<!doctype html>
<html>
  <head>
    <meta charset="utf-8" />
    <title>stencild - Swagger</title>
    <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@4/swagger-ui.css" />
  </head>
  <body>
    <div id="swagger-ui"></div>
    <script src="https://unpkg.com/swagger-ui-dist@4/swagger-ui-bundle.js"></script>
    <script>
      window.ui = SwaggerUIBundle({
        url: '/swagger/doc.json',
        dom_id: '#swagger-ui',
      })
    </script>
  </body>
</html>`

// Minimal OpenAPI document describing the main endpoints.
const swaggerJSON = `{
  "openapi": "3.0.0",
  "info": { "title": "stencild", "version": "v0.1.0" },
  "paths": {
    "/api/auth/register": {
      "post": { "summary": "Create an account", "responses": { "201": { "description": "account and token" }, "409": { "description": "email taken" } } }
    },
    "/api/auth/login": {
      "post": { "summary": "Exchange credentials for an access token", "responses": { "200": { "description": "token returned" }, "401": { "description": "invalid credentials" } } }
    },
    "/api/auth/logout": {
      "post": { "summary": "Revoke the presented access token", "responses": { "200": { "description": "logged out" } } }
    },
    "/api/auth/me": {
      "get": { "summary": "Get the authenticated account", "responses": { "200": { "description": "user" }, "401": { "description": "not authenticated" } } }
    },
    "/api/templates": {
      "get": { "summary": "List visible templates", "responses": { "200": { "description": "templates" } } },
      "post": { "summary": "Create a template", "responses": { "201": { "description": "created" } } }
    },
    "/api/templates/{id}": {
      "get": { "summary": "Fetch one template", "responses": { "200": { "description": "template" }, "403": { "description": "access denied" }, "404": { "description": "not found" } } },
      "put": { "summary": "Update a template", "responses": { "200": { "description": "updated" } } },
      "delete": { "summary": "Delete a template", "responses": { "204": { "description": "deleted" } } }
    },
    "/api/templates/{id}/render": {
      "post": { "summary": "Render a template with data", "responses": { "200": { "description": "rendered output" }, "422": { "description": "invalid template markup" } } }
    },
    "/health": { "get": { "summary": "Liveness check", "responses": { "200": { "description": "healthy" } } } },
    "/ready": { "get": { "summary": "Readiness check", "responses": { "200": { "description": "ready" }, "503": { "description": "not ready" } } } }
  }
}`
