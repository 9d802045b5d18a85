package server

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/bkclothing/bk-site/service/gallery"
	"github.com/bkclothing/bk-site/util"
	"github.com/bkclothing/bk-site/validate"
)

const internalErrorMessage = "Internal server error"

type galleryCreateInput struct {
	ImageURL string           `json:"imageUrl" binding:"required,absurl"`
	Category gallery.Category `json:"category" binding:"required,gallery_category"`
	Title    string           `json:"title" binding:"gallery_title"`
}

type galleryUpdateInput struct {
	ID       string            `json:"id" binding:"required"`
	Title    *string           `json:"title" binding:"omitempty,gallery_title"`
	Category *gallery.Category `json:"category"`
}

type galleryDeleteInput struct {
	ID string `json:"id" binding:"required"`
}

type galleryReorderInput struct {
	OrderedIDs []string `json:"orderedIds" binding:"required,min=1"`
}

type galleryReorderOutput struct {
	Success bool               `json:"success"`
	Items   gallery.Collection `json:"items"`
}

const invalidOrderMessage = "orderedIds must list every gallery item exactly once"

func listGalleryItems(store *gallery.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		items, err := store.List(c)
		if err != nil {
			util.ErrResponseMasked(c, http.StatusInternalServerError, err, internalErrorMessage)
			return
		}

		c.JSON(http.StatusOK, items)
	}
}

func createGalleryItem(store *gallery.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		var input galleryCreateInput
		if err := c.ShouldBindJSON(&input); err != nil {
			invalidInput(c, bindingErrorReason(err, galleryMessages))
			return
		}

		item, err := store.Add(c, gallery.NewItem{
			ImageURL: input.ImageURL,
			Category: input.Category,
			Title:    validate.SanitizeText(input.Title),
		})
		if err != nil {
			util.ErrResponseMasked(c, http.StatusInternalServerError, err, internalErrorMessage)
			return
		}

		c.JSON(http.StatusCreated, item)
	}
}

func updateGalleryItem(store *gallery.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		var input galleryUpdateInput
		if err := c.ShouldBindJSON(&input); err != nil {
			invalidInput(c, bindingErrorReason(err, galleryMessages))
			return
		}

		update := gallery.UpdateInput{Category: input.Category}
		if input.Category != nil && !input.Category.IsValid() {
			invalidInput(c, galleryMessages["Category"])
			return
		}
		if input.Title != nil {
			title := validate.SanitizeText(*input.Title)
			update.Title = &title
		}

		item, found, err := store.Update(c, input.ID, update)
		if err != nil {
			util.ErrResponseMasked(c, http.StatusInternalServerError, err, internalErrorMessage)
			return
		}
		if !found {
			util.ErrResponse(c, http.StatusNotFound, gallery.ErrItemNotFound{ID: input.ID})
			return
		}

		c.JSON(http.StatusOK, item)
	}
}

func deleteGalleryItem(store *gallery.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		var input galleryDeleteInput
		if err := c.ShouldBindJSON(&input); err != nil {
			invalidInput(c, bindingErrorReason(err, galleryMessages))
			return
		}

		deleted, err := store.Delete(c, input.ID)
		if err != nil {
			util.ErrResponseMasked(c, http.StatusInternalServerError, err, internalErrorMessage)
			return
		}
		if !deleted {
			util.ErrResponse(c, http.StatusNotFound, gallery.ErrItemNotFound{ID: input.ID})
			return
		}

		c.JSON(http.StatusOK, util.SuccessResponse{Success: true})
	}
}

func reorderGalleryItems(store *gallery.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		var input galleryReorderInput
		if err := c.ShouldBindJSON(&input); err != nil {
			invalidInput(c, bindingErrorReason(err, galleryMessages))
			return
		}

		ok, err := store.Reorder(c, input.OrderedIDs)
		if err != nil {
			util.ErrResponseMasked(c, http.StatusInternalServerError, err, internalErrorMessage)
			return
		}
		if !ok {
			invalidInput(c, invalidOrderMessage)
			return
		}

		items, err := store.List(c)
		if err != nil {
			util.ErrResponseMasked(c, http.StatusInternalServerError, err, internalErrorMessage)
			return
		}

		c.JSON(http.StatusOK, galleryReorderOutput{Success: true, Items: items})
	}
}

// galleryMessages are shown to the admin when a field fails validation.
var galleryMessages = map[string]string{
	"ImageURL":   "imageUrl must be an absolute http(s) URL",
	"Category":   "category must be one of formal, casual, inners",
	"Title":      "title is too long",
	"ID":         "id is required",
	"OrderedIDs": "orderedIds must be a non-empty array of ids",
}

func invalidInput(c *gin.Context, reason string) {
	util.ErrResponseMasked(c, http.StatusBadRequest, util.ErrInvalidInput{Reason: reason}, reason)
}

// bindingErrorReason describes a binding failure using the message for the first failing field.
// Missing required fields are reported together.
func bindingErrorReason(err error, messages map[string]string) string {
	if errors.Is(err, io.EOF) {
		return "request body is required"
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return "invalid request body"
	}

	var missing []string
	for _, fe := range verrs {
		if fe.Tag() == "required" {
			missing = append(missing, fe.Field())
		}
	}
	if len(missing) > 0 {
		return "missing required fields: " + strings.Join(missing, ", ")
	}

	if msg, ok := messages[verrs[0].StructField()]; ok {
		return msg
	}
	return verrs[0].Error()
}
