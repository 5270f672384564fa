package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Course Scheduler API",
        "description": "Constraint-based course schedule generator over the NSU offered-courses catalog",
        "version": "0.1.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Schedules", "description": "Schedule generation and ranking"},
        {"name": "Catalog", "description": "Scraped offered-courses catalog"}
    ],
    "paths": {
        "/schedules": {
            "get": {
                "tags": ["Schedules"],
                "summary": "Latest ranked schedules",
                "description": "Returns the most recent default-mode generation result, served from cache when fresh.",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "412": {"description": "Catalog not fetched yet", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/schedules/generate": {
            "post": {
                "tags": ["Schedules"],
                "summary": "Generate schedules with a custom rule set",
                "parameters": [
                    {"name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/GenerateScheduleRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Invalid constraint configuration", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "504": {"description": "Search budget exceeded", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/schedules/export": {
            "get": {
                "tags": ["Schedules"],
                "summary": "Download the latest schedules",
                "parameters": [
                    {"name": "format", "in": "query", "type": "string", "enum": ["csv", "pdf"], "default": "csv"}
                ],
                "produces": ["text/csv", "application/pdf"],
                "responses": {
                    "200": {"description": "File download"},
                    "404": {"description": "No schedules available"}
                }
            }
        },
        "/status": {
            "get": {
                "tags": ["Schedules"],
                "summary": "Scheduler status",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/catalog": {
            "get": {
                "tags": ["Catalog"],
                "summary": "Current course catalog",
                "parameters": [
                    {"name": "course", "in": "query", "type": "string"},
                    {"name": "instructor", "in": "query", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/catalog/refresh": {
            "post": {
                "tags": ["Catalog"],
                "summary": "Force a catalog refresh",
                "responses": {
                    "202": {"description": "Accepted", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "502": {"description": "Upstream catalog unavailable", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        }
    },
    "definitions": {
        "GenerateScheduleRequest": {
            "type": "object",
            "required": ["requiredCourses"],
            "properties": {
                "requiredCourses": {"type": "array", "items": {"type": "string"}},
                "minLectureStart": {"type": "string", "example": "11:00"},
                "dayPatterns": {"type": "array", "items": {"type": "string"}, "example": ["ST", "MW"]},
                "pairedCourses": {"type": "array", "items": {"type": "string"}, "example": ["CSE332=CSE332L"]},
                "instructorRules": {"type": "array", "items": {"type": "string"}, "example": ["CSE327=NbM:1|7"]},
                "maxDistinctDays": {"type": "integer"},
                "labForbiddenStart": {"type": "string", "example": "08:00"},
                "labForbiddenDay": {"type": "string"},
                "excludeEvening": {"type": "boolean"},
                "eveningStart": {"type": "string", "example": "18:00"},
                "topN": {"type": "integer"}
            }
        },
        "APIError": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "message": {"type": "string"},
                "status": {"type": "integer"}
            }
        },
        "ResponseEnvelope": {
            "type": "object",
            "properties": {
                "data": {"type": "object"},
                "error": {"$ref": "#/definitions/APIError"},
                "meta": {"type": "object"}
            }
        }
    }
}`

type swaggerDoc struct{}

// ReadDoc returns the Swagger document.
func (s *swaggerDoc) ReadDoc() string {
	return docTemplate
}

func init() {
	swag.Register(swag.Name, &swaggerDoc{})
}
