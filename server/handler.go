package server

import (
	"embed"
	"html/template"
	"io/fs"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/bkclothing/bk-site/middleware"
	"github.com/bkclothing/bk-site/service/emails"
	"github.com/bkclothing/bk-site/service/gallery"
	"github.com/bkclothing/bk-site/service/mediamapper"
)

//go:embed templates/*.html
var templatesFS embed.FS

//go:embed static
var staticFS embed.FS

func handlersInit(router *gin.Engine, store *gallery.Store, sender emails.Sender, contactLimiter *middleware.KeyRateLimiter, mapper *mediamapper.MediaMapper) *gin.Engine {
	router.SetHTMLTemplate(newTemplates(mapper))

	static, err := fs.Sub(staticFS, "static")
	if err != nil {
		panic(err)
	}
	router.StaticFS("/static", http.FS(static))

	// PAGES

	router.GET("/", homePage(store))
	router.GET("/about", aboutPage())
	router.GET("/products", productsPage(store))
	router.GET("/contact", contactPage())
	router.GET("/admin", adminPage())

	router.GET("/sitemap.xml", sitemap())
	router.GET("/robots.txt", robots())
	router.GET("/health", healthcheck())

	router.NoRoute(notFoundPage())

	apiGroup := router.Group("/api")

	// CONTACT

	apiGroup.POST("/contact", middleware.RateLimited(contactLimiter), submitContact(sender))

	// ADMIN GALLERY

	adminGroup := apiGroup.Group("/admin", middleware.AdminRequired())

	adminGroup.GET("/gallery", listGalleryItems(store))
	adminGroup.POST("/gallery", createGalleryItem(store))
	adminGroup.PATCH("/gallery", updateGalleryItem(store))
	adminGroup.DELETE("/gallery", deleteGalleryItem(store))
	adminGroup.PUT("/gallery", reorderGalleryItems(store))

	return router
}

func newTemplates(mapper *mediamapper.MediaMapper) *template.Template {
	funcs := template.FuncMap{
		"cardURL":  mapper.CardURL,
		"largeURL": mapper.LargeURL,
		"thumbURL": mapper.ThumbnailURL,
		"srcset":   mapper.SrcSet,
	}
	return template.Must(template.New("").Funcs(funcs).ParseFS(templatesFS, "templates/*.html"))
}
