package http

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-openapi/strfmt"

	cfg "github.com/les-detritivores/clic-compost/internal/config"
	"github.com/les-detritivores/clic-compost/internal/entity"
	"github.com/les-detritivores/clic-compost/internal/usecase"
)

const dateLayout = "2006-01-02"

func parseDate(s string) (time.Time, error) {
	t, err := time.Parse(dateLayout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, err
	}
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), nil
}

// subscriptionInput mirrors the original CreateSubscriptionInput shape.
type subscriptionInput struct {
	Firstname string `json:"firstname" binding:"required"`
	Lastname  string `json:"lastname" binding:"required"`
	Company   string `json:"company" binding:"required"`
	Email     string `json:"email" binding:"required,email"`
	Phone     string `json:"phone"`
	Location  string `json:"location" binding:"required"`
	Meals     int64  `json:"meals" binding:"required,min=1"`
	Service   string `json:"service" binding:"required"`
	StartedAt string `json:"startedAt" binding:"required"`
	Customer  string `json:"customer"`
	Card      string `json:"card"`
	Iban      string `json:"iban"`
}

func (in *subscriptionInput) toEntity(id int64) (*entity.Subscription, error) {
	startedAt, err := parseDate(in.StartedAt)
	if err != nil {
		return nil, err
	}
	return &entity.Subscription{
		ID:        id,
		Firstname: in.Firstname,
		Lastname:  in.Lastname,
		Company:   in.Company,
		Email:     strfmt.Email(in.Email),
		Phone:     in.Phone,
		Location:  in.Location,
		Meals:     in.Meals,
		Service:   in.Service,
		StartedAt: startedAt,
		Customer:  in.Customer,
		Card:      in.Card,
		Iban:      in.Iban,
	}, nil
}

type subscriptionResponse struct {
	ID        int64  `json:"id"`
	Firstname string `json:"firstname"`
	Lastname  string `json:"lastname"`
	Company   string `json:"company"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	Location  string `json:"location"`
	Meals     int64  `json:"meals"`
	Service   string `json:"service"`
	StartedAt string `json:"startedAt"`
	Customer  string `json:"customer"`
	Card      string `json:"card"`
	Iban      string `json:"iban"`
	CreatedAt string `json:"createdAt,omitempty"`
}

func toResponse(s *entity.Subscription) subscriptionResponse {
	resp := subscriptionResponse{
		ID:        s.ID,
		Firstname: s.Firstname,
		Lastname:  s.Lastname,
		Company:   s.Company,
		Email:     s.Email.String(),
		Phone:     s.Phone,
		Location:  s.Location,
		Meals:     s.Meals,
		Service:   s.Service,
		StartedAt: s.StartedAt.Format(dateLayout),
		Customer:  s.Customer,
		Card:      s.Card,
		Iban:      s.Iban,
	}
	if !s.CreatedAt.IsZero() {
		resp.CreatedAt = s.CreatedAt.Format(time.RFC3339)
	}
	return resp
}

func setupRouter(r *gin.Engine, u UseCases, c cfg.Config) {
	r.HandleMethodNotAllowed = true

	r.GET("/ping", func(ctx *gin.Context) {
		ctx.String(http.StatusOK, "pong")
	})

	{
		v1 := r.Group("api/v1/")
		setupSubscriptions(v1, u)
		setupSubscriptionsId(v1, u)
		setupNotifications(v1, u)
		setupCustomers(v1, u)
		setupSignup(v1, u, c)
	}
}

func setupSubscriptions(r *gin.RouterGroup, u UseCases) {
	r.GET("/subscriptions", func(c *gin.Context) {
		if !requireAcceptJSON(c) {
			return
		}

		subs, err := u.Sub.ListSubs(c)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
			return
		}

		resp := make([]subscriptionResponse, 0, len(subs))
		for _, s := range subs {
			resp = append(resp, toResponse(s))
		}
		c.JSON(http.StatusOK, resp)
	})

	r.POST("/subscriptions", func(c *gin.Context) {
		if !requireAcceptJSON(c) {
			return
		}
		if c.ContentType() != "" && c.ContentType() != "application/json" {
			c.JSON(http.StatusUnsupportedMediaType, gin.H{"error": "Use application/json"})
			return
		}

		var input subscriptionInput
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		sub, err := input.toEntity(0)
		if err != nil {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "invalid startedAt"})
			return
		}

		created, err := u.Sub.RegisterSub(c, sub)
		switch {
		case errors.Is(err, usecase.ErrInvalidSubscription), errors.Is(err, usecase.ErrInvalidStartDate):
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
			return
		case err != nil:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
			return
		}
		c.JSON(http.StatusCreated, toResponse(created))
	})

	r.OPTIONS("/subscriptions", func(c *gin.Context) {
		c.Writer.Header().Set("Allow", "POST,OPTIONS,GET")
		c.Status(http.StatusNoContent)
	})
}

func setupSubscriptionsId(r *gin.RouterGroup, u UseCases) {
	r.GET("/subscriptions/:id", func(c *gin.Context) {
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
		c.JSON(http.StatusOK, toResponse(sub))
	})

	r.PUT("/subscriptions/:id", func(c *gin.Context) {
		if !requireAcceptJSON(c) {
			return
		}
		if c.ContentType() != "" && c.ContentType() != "application/json" {
			c.JSON(http.StatusUnsupportedMediaType, gin.H{"error": "Use application/json"})
			return
		}
		id, err := strconv.ParseInt(c.Param("id"), 10, 64)
		if err != nil {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "invalid id"})
			return
		}

		var input subscriptionInput
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		sub, err := input.toEntity(id)
		if err != nil {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "invalid startedAt"})
			return
		}

		updated, err := u.Sub.UpdateSub(c, sub)
		switch {
		case errors.Is(err, usecase.ErrInvalidID):
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "invalid id"})
			return
		case errors.Is(err, usecase.ErrInvalidSubscription), errors.Is(err, usecase.ErrInvalidStartDate):
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
			return
		case errors.Is(err, usecase.ErrSubscriptionNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
			return
		case err != nil:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
			return
		}
		c.JSON(http.StatusOK, toResponse(updated))
	})

	r.DELETE("/subscriptions/:id", func(c *gin.Context) {
		if !requireAcceptJSON(c) {
			return
		}
		id, err := strconv.ParseInt(c.Param("id"), 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
			return
		}

		deleted, err := u.Sub.DeleteSub(c, id)
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
		c.JSON(http.StatusOK, toResponse(deleted))
	})

	r.OPTIONS("/subscriptions/:id", func(c *gin.Context) {
		c.Writer.Header().Set("Allow", "PUT,OPTIONS,GET,DELETE")
		c.Status(http.StatusNoContent)
	})
}

func acceptsJSON(h string) bool {
	if h == "" || h == "*/*" {
		return true
	}
	parts := strings.Split(h, ",")
	for _, p := range parts {
		mt := strings.TrimSpace(strings.SplitN(p, ";", 2)[0])
		if mt == "application/json" || mt == "*/*" {
			return true
		}
	}
	return false
}

func requireAcceptJSON(c *gin.Context) bool {
	if acceptsJSON(c.GetHeader("Accept")) {
		return true
	}
	c.JSON(http.StatusNotAcceptable, gin.H{"error": "Accept application/json only"})
	return false
}
