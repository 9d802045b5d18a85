// Package mediamapper turns product image URLs into resized, compressed variants served through
// imgix. Without an imgix source configured, URLs are passed through unchanged.
package mediamapper

import (
	"strconv"

	"github.com/imgix/imgix-go/v2"

	"github.com/bkclothing/bk-site/env"
)

const (
	thumbnailWidth = 96
	cardWidth      = 480
	largeWidth     = 1200
)

type MediaMapper struct {
	enabled            bool
	urlBuilder         imgix.URLBuilder
	thumbnailUrlParams []imgix.IxParam
	cardUrlParams      []imgix.IxParam
	largeUrlParams     []imgix.IxParam
	srcSetParams       []imgix.IxParam
}

func buildParams(defaults []imgix.IxParam, other ...imgix.IxParam) []imgix.IxParam {
	output := make([]imgix.IxParam, 0, len(defaults)+len(other))
	output = append(output, defaults...)
	output = append(output, other...)
	return output
}

func newWidthParam(width int) imgix.IxParam {
	return imgix.Param("w", strconv.Itoa(width))
}

// NewMediaMapper creates a mapper for an imgix web proxy source. An empty domain disables mapping;
// the token signs URLs and is required by web proxy sources.
func NewMediaMapper(domain, token string) *MediaMapper {
	if domain == "" {
		return &MediaMapper{}
	}

	options := []imgix.BuilderOption{imgix.WithLibParam(false)}
	if token != "" {
		options = append(options, imgix.WithToken(token))
	}
	urlBuilder := imgix.NewURLBuilder(domain, options...)

	defaultParams := []imgix.IxParam{
		imgix.Param("auto", "format", "compress"),
		imgix.Param("fit", "max"),
	}

	return &MediaMapper{
		enabled:            true,
		urlBuilder:         urlBuilder,
		thumbnailUrlParams: buildParams(defaultParams, newWidthParam(thumbnailWidth)),
		cardUrlParams:      buildParams(defaultParams, newWidthParam(cardWidth)),
		largeUrlParams:     buildParams(defaultParams, newWidthParam(largeWidth)),
		srcSetParams:       defaultParams,
	}
}

func NewMediaMapperFromEnv() *MediaMapper {
	return NewMediaMapper(env.GetString("IMGIX_DOMAIN"), env.GetString("IMGIX_SECRET"))
}

func (u *MediaMapper) Enabled() bool {
	return u.enabled
}

func (u *MediaMapper) buildImageUrl(sourceUrl string, params []imgix.IxParam) string {
	if !u.enabled || sourceUrl == "" {
		return sourceUrl
	}
	return u.urlBuilder.CreateURL(sourceUrl, params...)
}

func (u *MediaMapper) ThumbnailURL(sourceUrl string) string {
	return u.buildImageUrl(sourceUrl, u.thumbnailUrlParams)
}

func (u *MediaMapper) CardURL(sourceUrl string) string {
	return u.buildImageUrl(sourceUrl, u.cardUrlParams)
}

func (u *MediaMapper) LargeURL(sourceUrl string) string {
	return u.buildImageUrl(sourceUrl, u.largeUrlParams)
}

// SrcSet returns a srcset attribute value, or "" when mapping is disabled.
func (u *MediaMapper) SrcSet(sourceUrl string) string {
	if !u.enabled || sourceUrl == "" {
		return ""
	}
	return u.urlBuilder.CreateSrcset(sourceUrl, u.srcSetParams)
}
