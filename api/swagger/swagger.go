package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "M3 Catalog API",
        "description": "Media tagging and hierarchy catalog",
        "version": "0.1.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Medias", "description": "Media registration and lookup"},
        {"name": "TagSets", "description": "Typed tag namespaces"},
        {"name": "Tags", "description": "Typed tag values"},
        {"name": "Taggings", "description": "Media and tag associations"},
        {"name": "Hierarchies", "description": "Tag trees and their nodes"},
        {"name": "Cells", "description": "Faceted browsing over axes and filters"},
        {"name": "Bulk", "description": "NDJSON batch ingestion"},
        {"name": "Exports", "description": "CSV read-back"},
        {"name": "Admin", "description": "Maintenance operations"}
    ],
    "paths": {
        "/medias": {
            "get": {
                "tags": ["Medias"],
                "summary": "List medias",
                "parameters": [
                    {"name": "file_type", "in": "query", "type": "string"},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "limit", "in": "query", "type": "integer"}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            },
            "post": {
                "tags": ["Medias"],
                "summary": "Create or get a media by URI",
                "parameters": [
                    {"name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateMediaRequest"}}
                ],
                "responses": {
                    "200": {"description": "Existing media", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Validation error", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "422": {"description": "File type mismatch", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/medias/by-uri": {
            "get": {
                "tags": ["Medias"],
                "summary": "Get a media by URI",
                "parameters": [{"name": "uri", "in": "query", "required": true, "type": "string"}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/medias/{id}": {
            "get": {
                "tags": ["Medias"],
                "summary": "Get a media",
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "integer"}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "delete": {
                "tags": ["Medias"],
                "summary": "Delete a media and its taggings",
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "integer"}],
                "responses": {
                    "204": {"description": "Deleted"},
                    "404": {"description": "Not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/medias/{id}/tags": {
            "get": {
                "tags": ["Taggings"],
                "summary": "List tags attached to a media",
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "integer"}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/medias/{id}/timeline": {
            "get": {
                "tags": ["Cells"],
                "summary": "Medias stamped near a media's timestamp",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "integer"},
                    {"name": "tagset_id", "in": "query", "required": true, "type": "integer"},
                    {"name": "window", "in": "query", "type": "string", "description": "Half-width of the window, e.g. 30m"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Unknown media", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "422": {"description": "Tagset is not of timestamp type", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/cells": {
            "post": {
                "tags": ["Cells"],
                "summary": "Group medias into cells along up to three axes",
                "parameters": [
                    {"name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CellQuery"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Invalid axis or filter", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/cells/objects": {
            "post": {
                "tags": ["Cells"],
                "summary": "List the medias of one cell",
                "parameters": [
                    {"name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CellObjectQuery"}},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "limit", "in": "query", "type": "integer"}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/tagsets": {
            "get": {
                "tags": ["TagSets"],
                "summary": "List tagsets",
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            },
            "post": {
                "tags": ["TagSets"],
                "summary": "Create or get a tagset by name",
                "parameters": [
                    {"name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateTagSetRequest"}}
                ],
                "responses": {
                    "200": {"description": "Existing tagset", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "422": {"description": "Tag type mismatch", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/tagsets/by-name/{name}": {
            "get": {
                "tags": ["TagSets"],
                "summary": "Get a tagset by name",
                "parameters": [{"name": "name", "in": "path", "required": true, "type": "string"}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/tagsets/{id}": {
            "get": {
                "tags": ["TagSets"],
                "summary": "Get a tagset",
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "integer"}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/tags": {
            "get": {
                "tags": ["Tags"],
                "summary": "List tags",
                "parameters": [
                    {"name": "tag_type", "in": "query", "type": "string"},
                    {"name": "tagset_id", "in": "query", "type": "integer"}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            },
            "post": {
                "tags": ["Tags"],
                "summary": "Create or get a tag by tagset and value",
                "parameters": [
                    {"name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateTagRequest"}}
                ],
                "responses": {
                    "200": {"description": "Existing tag", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "422": {"description": "Type mismatch or unknown tagset", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/tags/{id}": {
            "get": {
                "tags": ["Tags"],
                "summary": "Get a tag",
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "integer"}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/tags/{id}/medias": {
            "get": {
                "tags": ["Taggings"],
                "summary": "List medias carrying a tag",
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "integer"}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/taggings": {
            "get": {
                "tags": ["Taggings"],
                "summary": "List taggings",
                "parameters": [
                    {"name": "media_id", "in": "query", "type": "integer"},
                    {"name": "tag_id", "in": "query", "type": "integer"}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            },
            "post": {
                "tags": ["Taggings"],
                "summary": "Create or get a tagging",
                "parameters": [
                    {"name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateTaggingRequest"}}
                ],
                "responses": {
                    "200": {"description": "Existing tagging", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "422": {"description": "Unknown media or tag", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/hierarchies": {
            "get": {
                "tags": ["Hierarchies"],
                "summary": "List hierarchies",
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            },
            "post": {
                "tags": ["Hierarchies"],
                "summary": "Create or get a hierarchy",
                "parameters": [
                    {"name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateHierarchyRequest"}}
                ],
                "responses": {
                    "200": {"description": "Existing hierarchy", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/hierarchies/{id}": {
            "get": {
                "tags": ["Hierarchies"],
                "summary": "Get a hierarchy",
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "integer"}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/nodes": {
            "get": {
                "tags": ["Hierarchies"],
                "summary": "List nodes",
                "parameters": [
                    {"name": "hierarchy_id", "in": "query", "type": "integer"},
                    {"name": "tag_id", "in": "query", "type": "integer"},
                    {"name": "parent_node_id", "in": "query", "type": "integer"},
                    {"name": "root", "in": "query", "type": "boolean"}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            },
            "post": {
                "tags": ["Hierarchies"],
                "summary": "Add a node, or the root when parent_node_id is omitted",
                "parameters": [
                    {"name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/AddNodeRequest"}}
                ],
                "responses": {
                    "200": {"description": "Existing node", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Hierarchy already has a different root", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "422": {"description": "Invalid parent", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/nodes/{id}": {
            "get": {
                "tags": ["Hierarchies"],
                "summary": "Get a node",
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "integer"}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            },
            "delete": {
                "tags": ["Hierarchies"],
                "summary": "Delete a node, reparenting its children",
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "integer"}],
                "responses": {
                    "200": {"description": "Deleted", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Root has several children", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/nodes/{id}/children": {
            "get": {
                "tags": ["Hierarchies"],
                "summary": "List direct children of a node",
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "integer"}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/bulk/medias": {
            "post": {
                "tags": ["Bulk"],
                "summary": "Stream medias as NDJSON",
                "consumes": ["application/x-ndjson"],
                "produces": ["application/x-ndjson"],
                "responses": {"200": {"description": "One acknowledgement per batch then a summary line"}}
            }
        },
        "/bulk/tags": {
            "post": {
                "tags": ["Bulk"],
                "summary": "Stream tags as NDJSON",
                "consumes": ["application/x-ndjson"],
                "produces": ["application/x-ndjson"],
                "responses": {"200": {"description": "One acknowledgement per batch with an id map"}}
            }
        },
        "/bulk/taggings": {
            "post": {
                "tags": ["Bulk"],
                "summary": "Stream taggings as NDJSON",
                "consumes": ["application/x-ndjson"],
                "produces": ["application/x-ndjson"],
                "responses": {"200": {"description": "One acknowledgement per batch"}}
            }
        },
        "/exports/medias.csv": {
            "get": {
                "tags": ["Exports"],
                "summary": "Export medias as CSV",
                "produces": ["text/csv"],
                "parameters": [{"name": "file_type", "in": "query", "type": "string"}],
                "responses": {"200": {"description": "CSV file"}}
            }
        },
        "/exports/taggings.csv": {
            "get": {
                "tags": ["Exports"],
                "summary": "Export taggings as CSV",
                "produces": ["text/csv"],
                "responses": {"200": {"description": "CSV file"}}
            }
        },
        "/admin/reset": {
            "post": {
                "tags": ["Admin"],
                "summary": "Drop and recreate the catalog schema",
                "responses": {
                    "200": {"description": "Reset", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "403": {"description": "Reset disabled", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        }
    },
    "definitions": {
        "CellAxis": {
            "type": "object",
            "properties": {
                "type": {"type": "string", "enum": ["tagset", "node"]},
                "id": {"type": "integer"}
            }
        },
        "CellFilter": {
            "type": "object",
            "required": ["type"],
            "properties": {
                "type": {"type": "string", "enum": ["tag", "tagset", "node", "range"]},
                "ids": {"type": "array", "items": {"type": "integer"}},
                "ranges": {
                    "type": "array",
                    "items": {
                        "type": "object",
                        "properties": {
                            "tagset_id": {"type": "integer"},
                            "low": {"type": "string"},
                            "high": {"type": "string"}
                        }
                    }
                }
            }
        },
        "CellQuery": {
            "type": "object",
            "properties": {
                "x": {"$ref": "#/definitions/CellAxis"},
                "y": {"$ref": "#/definitions/CellAxis"},
                "z": {"$ref": "#/definitions/CellAxis"},
                "filters": {"type": "array", "items": {"$ref": "#/definitions/CellFilter"}}
            }
        },
        "CellObjectQuery": {
            "type": "object",
            "properties": {
                "filters": {"type": "array", "items": {"$ref": "#/definitions/CellFilter"}}
            }
        },
        "CreateMediaRequest": {
            "type": "object",
            "required": ["file_uri", "file_type"],
            "properties": {
                "file_uri": {"type": "string"},
                "file_type": {"type": "string", "enum": ["image", "audio", "video", "other"]},
                "thumbnail_uri": {"type": "string"}
            }
        },
        "CreateTagSetRequest": {
            "type": "object",
            "required": ["name", "tag_type"],
            "properties": {
                "name": {"type": "string"},
                "tag_type": {"type": "string", "enum": ["alphanumerical", "timestamp", "time", "date", "numerical"]}
            }
        },
        "CreateTagRequest": {
            "type": "object",
            "required": ["tagset_id", "tag_type", "value"],
            "properties": {
                "tagset_id": {"type": "integer"},
                "tag_type": {"type": "string"},
                "value": {"type": "string"}
            }
        },
        "CreateTaggingRequest": {
            "type": "object",
            "required": ["media_id", "tag_id"],
            "properties": {
                "media_id": {"type": "integer"},
                "tag_id": {"type": "integer"}
            }
        },
        "CreateHierarchyRequest": {
            "type": "object",
            "required": ["name", "tagset_id"],
            "properties": {
                "name": {"type": "string"},
                "tagset_id": {"type": "integer"}
            }
        },
        "AddNodeRequest": {
            "type": "object",
            "required": ["hierarchy_id", "tag_id"],
            "properties": {
                "hierarchy_id": {"type": "integer"},
                "tag_id": {"type": "integer"},
                "parent_node_id": {"type": "integer"}
            }
        },
        "Pagination": {
            "type": "object",
            "properties": {
                "page": {"type": "integer"},
                "page_size": {"type": "integer"},
                "total_count": {"type": "integer"}
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
                "pagination": {"$ref": "#/definitions/Pagination"},
                "meta": {"type": "object"}
            }
        }
    }
}`

type catalogDoc struct{}

// ReadDoc returns the Swagger document.
func (d *catalogDoc) ReadDoc() string {
	return docTemplate
}

func init() {
	swag.Register(swag.Name, &catalogDoc{})
}
