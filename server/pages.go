package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/bkclothing/bk-site/service/gallery"
	"github.com/bkclothing/bk-site/service/logger"
	sentryutil "github.com/bkclothing/bk-site/service/sentry"
	"github.com/bkclothing/bk-site/site"
)

// latestItemsOnHome is how many gallery items the home page shows.
const latestItemsOnHome = 6

type pageData struct {
	Title       string
	Description string
	Path        string
	Year        int

	Name      string
	Tagline   string
	Email     string
	Instagram string
	Facebook  string
	Phones    []site.Phone
	Address   site.Address
	NavLinks  []site.NavLink

	Items      gallery.Collection
	Category   gallery.Category
	Categories []gallery.Category
	Cards      []site.CategoryCard
	Values     []site.Value
}

func newPageData(c *gin.Context, title, description string) pageData {
	if description == "" {
		description = site.Description
	}
	if title != "" {
		title = title + " | " + site.Name
	} else {
		title = site.Name + " | " + site.Tagline
	}

	return pageData{
		Title:       title,
		Description: description,
		Path:        c.Request.URL.Path,
		Year:        time.Now().Year(),
		Name:        site.Name,
		Tagline:     site.Tagline,
		Email:       site.Email,
		Instagram:   site.Instagram,
		Facebook:    site.Facebook,
		Phones:      site.Phones,
		Address:     site.CompanyAddress,
		NavLinks:    site.NavLinks,
		Categories:  gallery.Categories,
	}
}

// galleryForPage reads the gallery for a public page. A failed read is reported and the page is
// rendered with an empty gallery instead.
func galleryForPage(ctx context.Context, store *gallery.Store) gallery.Collection {
	items, err := store.List(ctx)
	if err != nil {
		logger.For(ctx).WithError(err).Error("failed to load gallery for page")
		sentryutil.ReportError(ctx, logger.LoggedError{Message: "failed to load gallery for page", Err: err})
		return gallery.Collection{}
	}
	return items
}

func homePage(store *gallery.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		data := newPageData(c, "", "")
		data.Cards = site.CategoryCards

		items := galleryForPage(c, store)
		if len(items) > latestItemsOnHome {
			items = items[:latestItemsOnHome]
		}
		data.Items = items

		c.HTML(http.StatusOK, "home.html", data)
	}
}

func aboutPage() gin.HandlerFunc {
	return func(c *gin.Context) {
		data := newPageData(c, "About Us", "Learn about "+site.Name+", a wholesale clothing manufacturer and distributor serving retailers across Sri Lanka.")
		data.Values = site.Values
		c.HTML(http.StatusOK, "about.html", data)
	}
}

func productsPage(store *gallery.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		data := newPageData(c, "Products", "Browse our wholesale range of formal wear, casual wear and innerwear.")

		items := galleryForPage(c, store)
		if category := gallery.Category(c.Query("category")); category.IsValid() {
			data.Category = category
			items = items.InCategory(category)
		}
		data.Items = items

		c.HTML(http.StatusOK, "products.html", data)
	}
}

func contactPage() gin.HandlerFunc {
	return func(c *gin.Context) {
		data := newPageData(c, "Contact Us", "Get in touch with "+site.Name+" for wholesale enquiries.")
		c.HTML(http.StatusOK, "contact.html", data)
	}
}

func adminPage() gin.HandlerFunc {
	return func(c *gin.Context) {
		data := newPageData(c, "Admin", "")
		data.Cards = site.CategoryCards
		c.Header("X-Robots-Tag", "noindex")
		c.HTML(http.StatusOK, "admin.html", data)
	}
}

func notFoundPage() gin.HandlerFunc {
	return func(c *gin.Context) {
		data := newPageData(c, "Page Not Found", "")
		c.HTML(http.StatusNotFound, "404.html", data)
	}
}
