package server

import (
	"encoding/xml"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/bkclothing/bk-site/env"
	"github.com/bkclothing/bk-site/site"
)

const sitemapNamespace = "http://www.sitemaps.org/schemas/sitemap/0.9"

type sitemapURLSet struct {
	XMLName xml.Name     `xml:"urlset"`
	Xmlns   string       `xml:"xmlns,attr"`
	URLs    []sitemapURL `xml:"url"`
}

type sitemapURL struct {
	Loc        string `xml:"loc"`
	LastMod    string `xml:"lastmod"`
	ChangeFreq string `xml:"changefreq"`
	Priority   string `xml:"priority"`
}

func siteURL() string {
	u := strings.TrimSuffix(env.GetString("SITE_URL"), "/")
	if u == "" {
		return site.DefaultURL
	}
	return u
}

func sitemap() gin.HandlerFunc {
	return func(c *gin.Context) {
		set := sitemapURLSet{Xmlns: sitemapNamespace}
		for _, entry := range site.SitemapEntries(siteURL(), time.Now()) {
			set.URLs = append(set.URLs, sitemapURL{
				Loc:        entry.URL,
				LastMod:    entry.LastModified.UTC().Format(time.RFC3339),
				ChangeFreq: string(entry.ChangeFrequency),
				Priority:   strconv.FormatFloat(entry.Priority, 'f', 1, 64),
			})
		}

		c.XML(http.StatusOK, set)
	}
}

func robots() gin.HandlerFunc {
	return func(c *gin.Context) {
		body := fmt.Sprintf("User-agent: *\nAllow: /\nDisallow: /admin\nDisallow: /api/\n\nSitemap: %s/sitemap.xml\n", siteURL())
		c.String(http.StatusOK, body)
	}
}
