// Package docs 由 swag 注解生成的 OpenAPI 文档
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "termsOfService": "http://swagger.io/terms/",
        "contact": {
            "name": "API Support",
            "url": "http://www.swagger.io/support",
            "email": "support@swagger.io"
        },
        "license": {
            "name": "Apache 2.0",
            "url": "http://www.apache.org/licenses/LICENSE-2.0.html"
        },
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/api/candidates/{email}": {
            "post": {
                "description": "只执行到候选视图阶段，返回当日 seed、识别到的意图和打乱后的候选摘要",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["推荐"],
                "summary": "查看用户的候选视图",
                "parameters": [
                    {"type": "string", "description": "用户邮箱", "name": "email", "in": "path", "required": true},
                    {"description": "用户偏好", "name": "body", "in": "body", "schema": {"$ref": "#/definitions/models.PreferenceRequest"}}
                ],
                "responses": {
                    "200": {"description": "成功", "schema": {"$ref": "#/definitions/models.CandidateViewResponse"}},
                    "400": {"description": "参数错误", "schema": {"$ref": "#/definitions/models.APIResponse"}},
                    "500": {"description": "服务器错误", "schema": {"$ref": "#/definitions/models.APIResponse"}}
                }
            }
        },
        "/api/intent": {
            "get": {
                "description": "按关键词表识别偏好文本对应的政策类型，没有命中时返回空字符串",
                "produces": ["application/json"],
                "tags": ["推荐"],
                "summary": "识别偏好文本的意图",
                "parameters": [
                    {"type": "string", "description": "偏好文本", "name": "text", "in": "query", "required": true}
                ],
                "responses": {
                    "200": {"description": "成功", "schema": {"$ref": "#/definitions/models.IntentResponse"}},
                    "400": {"description": "参数错误", "schema": {"$ref": "#/definitions/models.APIResponse"}}
                }
            }
        },
        "/api/recommendation/{email}": {
            "get": {
                "description": "从推荐缓存读取最近一次生成的结果，不重新计算",
                "produces": ["application/json"],
                "tags": ["推荐"],
                "summary": "获取用户最近一次推荐结果",
                "parameters": [
                    {"type": "string", "description": "用户邮箱", "name": "email", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "成功", "schema": {"$ref": "#/definitions/models.RecommendationResponse"}},
                    "400": {"description": "参数错误", "schema": {"$ref": "#/definitions/models.APIResponse"}},
                    "404": {"description": "没有推荐数据", "schema": {"$ref": "#/definitions/models.APIResponse"}}
                }
            },
            "post": {
                "description": "执行完整推荐流程：预过滤 → 资格过滤 → 候选视图 → 最终选择 → 推荐理由，并写入缓存",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["推荐"],
                "summary": "为指定用户生成政策推荐",
                "parameters": [
                    {"type": "string", "description": "用户邮箱", "name": "email", "in": "path", "required": true},
                    {"description": "用户偏好", "name": "body", "in": "body", "schema": {"$ref": "#/definitions/models.PreferenceRequest"}}
                ],
                "responses": {
                    "200": {"description": "成功", "schema": {"$ref": "#/definitions/models.RecommendationResponse"}},
                    "400": {"description": "参数错误", "schema": {"$ref": "#/definitions/models.APIResponse"}},
                    "500": {"description": "服务器错误", "schema": {"$ref": "#/definitions/models.APIResponse"}}
                }
            }
        }
    },
    "definitions": {
        "models.APIResponse": {
            "type": "object",
            "properties": {
                "code": {"type": "integer", "example": 0},
                "data": {},
                "message": {"type": "string", "example": "success"}
            }
        },
        "models.PreferenceRequest": {
            "type": "object",
            "properties": {
                "preference": {"type": "string", "maxLength": 500, "example": "취업 준비중입니다"}
            }
        },
        "models.RecommendationResponse": {
            "type": "object",
            "properties": {
                "code": {"type": "integer", "example": 0},
                "data": {"type": "object"},
                "message": {"type": "string", "example": "success"}
            }
        },
        "models.CandidateViewResponse": {
            "type": "object",
            "properties": {
                "code": {"type": "integer", "example": 0},
                "data": {"type": "object"},
                "message": {"type": "string", "example": "success"}
            }
        },
        "models.IntentResponse": {
            "type": "object",
            "properties": {
                "code": {"type": "integer", "example": 0},
                "data": {
                    "type": "object",
                    "properties": {
                        "intent": {"type": "string", "example": "employment"},
                        "text": {"type": "string", "example": "취업 준비중입니다"}
                    }
                },
                "message": {"type": "string", "example": "success"}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "localhost:8080",
	BasePath:         "/",
	Schemes:          []string{"http", "https"},
	Title:            "青年政策推荐服务 API",
	Description:      "基于用户画像和偏好文本的青年政策推荐服务，包含候选视图、意图识别和推荐缓存",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
