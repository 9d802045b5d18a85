package server

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/sirupsen/logrus"

	"github.com/bkclothing/bk-site/env"
	"github.com/bkclothing/bk-site/service/emails"
	"github.com/bkclothing/bk-site/service/logger"
	"github.com/bkclothing/bk-site/util"
	"github.com/bkclothing/bk-site/validate"
)

type contactRequest struct {
	Name     string `json:"name"`
	Phone    string `json:"phone"`
	Email    string `json:"email"`
	Message  string `json:"message"`
	Honeypot string `json:"honeypot"`
}

type contactInput struct {
	Name    string `json:"name" binding:"required,contact_name"`
	Phone   string `json:"phone" binding:"required,phone"`
	Email   string `json:"email" binding:"required,email"`
	Message string `json:"message" binding:"required,contact_message"`
}

var contactMessages = map[string]string{
	"Name":    "Name must be at least 2 characters",
	"Phone":   "Please enter a valid phone number",
	"Email":   "Please enter a valid email address",
	"Message": "Message must be at least 10 characters",
}

func submitContact(sender emails.Sender) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req contactRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			invalidInput(c, "invalid request body")
			return
		}

		// Bots fill in the hidden field. Pretend it worked so they don't retry.
		if req.Honeypot != "" {
			logger.For(c).WithField("ip", c.ClientIP()).Info("dropping contact submission with honeypot set")
			c.JSON(http.StatusOK, util.SuccessResponse{Success: true})
			return
		}

		input := contactInput{
			Name:    validate.SanitizeText(req.Name),
			Phone:   validate.SanitizeText(req.Phone),
			Email:   validate.SanitizeText(req.Email),
			Message: validate.SanitizeText(req.Message),
		}

		if input.Name == "" || input.Phone == "" || input.Email == "" || input.Message == "" {
			invalidInput(c, "All fields are required")
			return
		}

		if err := binding.Validator.ValidateStruct(input); err != nil {
			invalidInput(c, bindingErrorReason(err, contactMessages))
			return
		}

		sub := emails.ContactSubmission{
			Name:        input.Name,
			Phone:       input.Phone,
			Email:       input.Email,
			Message:     input.Message,
			SubmittedAt: time.Now(),
		}

		logger.For(c).WithFields(logrus.Fields{
			"name":  sub.Name,
			"email": sub.Email,
		}).Info("contact form submission")

		err := emails.SendContact(c, sender, sub, emails.ContactConfig{
			To:        env.GetString("CONTACT_TO_EMAIL"),
			AutoReply: env.GetBool("CONTACT_AUTOREPLY"),
		})
		if err != nil {
			util.ErrResponseMasked(c, http.StatusInternalServerError, err, "Failed to send message, please try again later")
			return
		}

		c.JSON(http.StatusOK, util.SuccessResponse{Success: true})
	}
}
