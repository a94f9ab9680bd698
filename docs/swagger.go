package docs

// @title 青年政策推荐服务 API
// @version 1.0
// @description 基于用户画像和偏好文本的青年政策推荐服务，包含候选视图、意图识别和推荐缓存
// @termsOfService http://swagger.io/terms/

// @contact.name API Support
// @contact.url http://www.swagger.io/support
// @contact.email support@swagger.io

// @license.name Apache 2.0
// @license.url http://www.apache.org/licenses/LICENSE-2.0.html

// @host localhost:8080
// @BasePath /
// @schemes http https
