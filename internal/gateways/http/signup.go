package http

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	cfg "github.com/les-detritivores/clic-compost/internal/config"
	"github.com/les-detritivores/clic-compost/internal/usecase"
)

// cardDetailsInput carries the raw card fields to the payment provider.
type cardDetailsInput struct {
	Number   string `json:"number" binding:"required"`
	ExpMonth int64  `json:"expMonth" binding:"required,min=1,max=12"`
	ExpYear  int64  `json:"expYear" binding:"required"`
	CVC      string `json:"cvc" binding:"required"`
}

// signupInput is the full intake payload: the draft plus the payment
// instrument the subscriber completed. startedAt may be omitted, in which
// case the earliest allowed start date is used.
type signupInput struct {
	Firstname string            `json:"firstname" binding:"required"`
	Lastname  string            `json:"lastname" binding:"required"`
	Company   string            `json:"company" binding:"required"`
	Email     string            `json:"email" binding:"required,email"`
	Phone     string            `json:"phone"`
	Location  string            `json:"location" binding:"required"`
	Meals     int64             `json:"meals" binding:"required,min=1"`
	Service   string            `json:"service" binding:"required"`
	StartedAt string            `json:"startedAt"`
	Card      *cardDetailsInput `json:"card"`
	Iban      string            `json:"iban"`
}

type stepEventResponse struct {
	Step    string `json:"step"`
	OK      bool   `json:"ok"`
	Message string `json:"message"`
}

type signupResponse struct {
	Subscription subscriptionResponse `json:"subscription"`
	Events       []stepEventResponse  `json:"events"`
	RedirectTo   string               `json:"redirectTo"`
}

func setupSignup(r *gin.RouterGroup, u UseCases, c cfg.Config) {
	delayDays := c.Signup.StartDelayDays

	r.POST("/signup", func(ctx *gin.Context) {
		if !requireAcceptJSON(ctx) {
			return
		}
		if ctx.ContentType() != "" && ctx.ContentType() != "application/json" {
			ctx.JSON(http.StatusUnsupportedMediaType, gin.H{"error": "Use application/json"})
			return
		}

		var input signupInput
		if err := ctx.ShouldBindJSON(&input); err != nil {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		if !usecase.SubmitAllowed(false, input.Card != nil, input.Iban != "") {
			ctx.JSON(http.StatusUnprocessableEntity, gin.H{"error": "at least one payment method must be completed"})
			return
		}

		minStart := usecase.DelayDate(today(), delayDays)
		startedAt := minStart
		if input.StartedAt != "" {
			parsed, err := parseDate(input.StartedAt)
			if err != nil {
				ctx.JSON(http.StatusUnprocessableEntity, gin.H{"error": "invalid startedAt"})
				return
			}
			if parsed.Before(minStart) {
				ctx.JSON(http.StatusUnprocessableEntity, gin.H{"error": "startedAt before earliest allowed start date"})
				return
			}
			startedAt = parsed
		}

		draft := (&subscriptionInput{
			Firstname: input.Firstname,
			Lastname:  input.Lastname,
			Company:   input.Company,
			Email:     input.Email,
			Phone:     input.Phone,
			Location:  input.Location,
			Meals:     input.Meals,
			Service:   input.Service,
			StartedAt: startedAt.Format(dateLayout),
		})
		sub, err := draft.toEntity(0)
		if err != nil {
			ctx.JSON(http.StatusUnprocessableEntity, gin.H{"error": "invalid startedAt"})
			return
		}

		var choice usecase.PaymentChoice
		if input.Card != nil {
			choice.Card = &usecase.CardDetails{
				Number:   input.Card.Number,
				ExpMonth: input.Card.ExpMonth,
				ExpYear:  input.Card.ExpYear,
				CVC:      input.Card.CVC,
			}
		}
		choice.Iban = input.Iban

		result, err := u.Intake.Submit(ctx, sub, choice)
		switch {
		case errors.Is(err, usecase.ErrNoPaymentMethod):
			ctx.JSON(http.StatusUnprocessableEntity, gin.H{"error": "at least one payment method must be completed"})
			return
		case errors.Is(err, usecase.ErrInvalidSubscription), errors.Is(err, usecase.ErrInvalidStartDate):
			ctx.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
			return
		case err != nil && result == nil && sub.Customer == "":
			// customer provisioning failed before anything else happened
			ctx.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
			return
		case err != nil:
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		events := make([]stepEventResponse, 0, len(result.Events))
		for _, e := range result.Events {
			events = append(events, stepEventResponse(e))
		}
		ctx.JSON(http.StatusCreated, signupResponse{
			Subscription: toResponse(result.Subscription),
			Events:       events,
			RedirectTo:   result.RedirectTo,
		})
	})
}

func setupNotifications(r *gin.RouterGroup, u UseCases) {
	r.POST("/subscriptions/:id/email", func(c *gin.Context) {
		if !requireAcceptJSON(c) {
			return
		}
		id, err := strconv.ParseInt(c.Param("id"), 10, 64)
		if err != nil {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "invalid id"})
			return
		}

		sub, err := u.Sub.GetSubByID(c, id)
		switch {
		case errors.Is(err, usecase.ErrInvalidID):
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "invalid id"})
			return
		case errors.Is(err, usecase.ErrSubscriptionNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
			return
		case err != nil:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
			return
		}

		messageID, err := u.Notify.SendSubscriptionEmail(c, sub)
		if err != nil {
			c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"messageId": messageID})
	})

	r.POST("/sms", func(c *gin.Context) {
		if !requireAcceptJSON(c) {
			return
		}

		var input struct {
			Text string `json:"text" binding:"required"`
			To   string `json:"to" binding:"required"`
		}
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		sid, err := u.Notify.SendSMS(c, input.Text, input.To)
		if err != nil {
			c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"id": sid})
	})
}

func setupCustomers(r *gin.RouterGroup, u UseCases) {
	r.POST("/customers", func(c *gin.Context) {
		if !requireAcceptJSON(c) {
			return
		}

		var input struct {
			Description string `json:"description" binding:"required"`
			Email       string `json:"email" binding:"required,email"`
		}
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		id, err := u.Payments.CreateCustomer(c, input.Description, input.Email)
		if err != nil {
			c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusCreated, gin.H{"id": id})
	})

	r.GET("/customers/:id/secret", func(c *gin.Context) {
		if !requireAcceptJSON(c) {
			return
		}

		secret, err := u.Payments.SetupSecret(c, c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"secret": secret})
	})
}

func today() time.Time {
	now := time.Now().UTC()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
}
