// Package site holds the company details and page copy shared by the pages, emails and sitemap.
package site

import (
	"strings"
	"time"

	"github.com/bkclothing/bk-site/service/gallery"
)

const (
	Name        = "BK Clothing Company"
	Tagline     = "Manufacturers & Wholesale Dealers in Men's Clothing"
	Description = "BK Clothing Company - Premium wholesale clothing manufacturer and distributor in Sri Lanka. Specializing in formal wear, casual wear, and innerwear for wholesale buyers."
	DefaultURL  = "https://bkclothing.lk"
	Email       = "bkclothinginfo@gmail.com"
	Instagram   = "https://www.instagram.com/bkclothingcompany?igsh=M2ozMHh0andkcmln"
	Facebook    = "https://www.facebook.com/share/1DfaYj4ACF/"
)

type Phone struct {
	Display string
	Href    string
}

var Phones = []Phone{
	{Display: "011 233 5727", Href: "tel:+94112335727"},
	{Display: "076 400 3976", Href: "tel:+94764003976"},
	{Display: "077 376 7841", Href: "tel:+94773767841"},
	{Display: "077 600 5053", Href: "tel:+94776005053"},
}

type Address struct {
	Lines []string
}

func (a Address) Full() string {
	return strings.Join(a.Lines, ", ")
}

var CompanyAddress = Address{Lines: []string{"No.25 3rd Cross Street", "Colombo 11", "Sri Lanka"}}

type NavLink struct {
	Label string
	Href  string
}

var NavLinks = []NavLink{
	{Label: "Home", Href: "/"},
	{Label: "About", Href: "/about"},
	{Label: "Products", Href: "/products"},
	{Label: "Contact", Href: "/contact"},
}

// CategoryCard is a category highlight on the home page.
type CategoryCard struct {
	Category    gallery.Category
	Image       string
	Description string
}

var CategoryCards = []CategoryCard{
	{
		Category:    gallery.CategoryFormal,
		Image:       "/static/formal.svg",
		Description: "Premium formal wear for professionals. Shirts, trousers, suits, and more.",
	},
	{
		Category:    gallery.CategoryCasual,
		Image:       "/static/casual.svg",
		Description: "Comfortable everyday clothing. T-shirts, jeans, polos, and casual essentials.",
	},
	{
		Category:    gallery.CategoryInners,
		Image:       "/static/inners.svg",
		Description: "Quality innerwear and essentials. Cotton-rich, comfortable, and durable.",
	},
}

type Value struct {
	Title       string
	Description string
}

// Values are listed on the about page.
var Values = []Value{
	{
		Title:       "Quality First",
		Description: "Every garment passes through rigorous quality checks to ensure our partners receive only the best products for their customers.",
	},
	{
		Title:       "Wholesale Focus",
		Description: "We specialize exclusively in wholesale distribution, offering competitive bulk pricing and dedicated support for retailers and businesses.",
	},
	{
		Title:       "Sri Lanka Wide",
		Description: "Our distribution network spans across Sri Lanka, ensuring reliable and timely delivery to retail partners nationwide.",
	},
	{
		Title:       "Diverse Range",
		Description: "From premium formal wear to everyday casuals and essential innerwear, we provide a comprehensive clothing solution under one roof.",
	},
}

type ChangeFrequency string

const (
	ChangeWeekly  ChangeFrequency = "weekly"
	ChangeMonthly ChangeFrequency = "monthly"
)

type SitemapEntry struct {
	URL             string
	LastModified    time.Time
	ChangeFrequency ChangeFrequency
	Priority        float64
}

// SitemapEntries lists the public pages under baseURL, all stamped with lastModified.
func SitemapEntries(baseURL string, lastModified time.Time) []SitemapEntry {
	baseURL = strings.TrimSuffix(baseURL, "/")
	if baseURL == "" {
		baseURL = DefaultURL
	}

	return []SitemapEntry{
		{URL: baseURL, LastModified: lastModified, ChangeFrequency: ChangeWeekly, Priority: 1},
		{URL: baseURL + "/about", LastModified: lastModified, ChangeFrequency: ChangeMonthly, Priority: 0.8},
		{URL: baseURL + "/products", LastModified: lastModified, ChangeFrequency: ChangeWeekly, Priority: 0.9},
		{URL: baseURL + "/contact", LastModified: lastModified, ChangeFrequency: ChangeMonthly, Priority: 0.7},
	}
}
