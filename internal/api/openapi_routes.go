package api

import (
	_ "embed"
	"net/http"
	"os"

	"github.com/gin-gonic/gin"
)

//go:embed docs/openapi.yaml
var openAPISpec []byte

// localRedoc 离线环境可放置的 redoc 脚本
const localRedoc = "static/vendors/redoc/redoc.standalone.js"

// registerOpenAPIRoutes 提供 /openapi 与 /docs/redoc
func registerOpenAPIRoutes(engine *gin.Engine) {
	engine.GET("/openapi", serveOpenAPI)
	engine.GET("/openapi.yaml", serveOpenAPI)
	engine.GET("/docs/redoc", serveRedoc)
	if _, err := os.Stat(localRedoc); err == nil {
		engine.StaticFile("/"+localRedoc, localRedoc)
	}
}

func serveOpenAPI(c *gin.Context) {
	c.Data(http.StatusOK, "application/yaml; charset=utf-8", openAPISpec)
}

func serveRedoc(c *gin.Context) {
	// 优先使用本地 redoc 资源，否则回退到 CDN
	script := "https://cdn.redoc.ly/redoc/latest/bundles/redoc.standalone.js"
	if _, err := os.Stat(localRedoc); err == nil {
		script = "/" + localRedoc
	}

	html := `<!DOCTYPE html>
<html>
  <head>
    <meta charset="utf-8" />
    <title>Minecraft Monitor API - Redoc</title>
    <meta name="viewport" content="width=device-width, initial-scale=1">
    <style>
      body{margin:0;padding:0;font-family:-apple-system,Segoe UI,Helvetica,Arial,sans-serif}
      .topbar{position:fixed;top:0;left:0;right:0;height:48px;display:flex;align-items:center;justify-content:space-between;padding:0 12px;background:#f8fafc;border-bottom:1px solid #e5e7eb;z-index:9999}
      .brand{font-weight:600;color:#0f172a}
      .nav a{color:#0f172a;text-decoration:none;margin-left:12px;padding:6px 10px;border-radius:6px;border:1px solid #d1d5db;background:#ffffff}
      .nav a.dim{opacity:.45;cursor:not-allowed}
      .wrap{margin-top:48px}
    </style>
  </head>
  <body>
    <div class="topbar">
      <div class="brand">Minecraft Monitor API</div>
      <div class="nav">
        <a href="/openapi" target="_blank">OpenAPI YAML</a>
        <a id="swaggerLink" href="/swagger/index.html">Swagger UI</a>
      </div>
    </div>
    <div class="wrap"><redoc spec-url="/openapi" expand-responses="200"></redoc></div>
    <script src="` + script + `"></script>
    <script>
      ;(function(){
        var link=document.getElementById('swaggerLink');
        function disable(){ link.classList.add('dim'); link.title='需使用 -tags swagger 构建'; link.addEventListener('click',function(e){ e.preventDefault(); }); }
        fetch('/swagger/index.html').then(function(res){ if(!res.ok){ disable(); } }).catch(disable);
      })();
    </script>
  </body>
</html>`
	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(html))
}
