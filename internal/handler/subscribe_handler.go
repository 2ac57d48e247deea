package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/Hakote/Hakote/internal/calendar"
	"github.com/Hakote/Hakote/internal/logging"
	"github.com/Hakote/Hakote/internal/repository"
)

const (
	msgSubscribeFailed  = "구독 처리 중 오류가 발생했습니다."
	msgUnknownList      = "선택한 문제 리스트를 찾을 수 없습니다."
	msgInvalidLink      = "유효하지 않은 구독 해지 링크입니다."
	msgSubscriptionGone = "해당 구독을 찾을 수 없습니다."
	msgUnsubscribeError = "구독 해지 처리 중 오류가 발생했습니다."
	msgUnsubscribed     = "구독 해지가 완료되었습니다."
	msgListsFailed      = "문제 리스트 조회에 실패했습니다."
)

// Subscribe creates or reactivates a subscription
func (h *Handlers) Subscribe(c *gin.Context) {
	var req SubscribeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.observeSubscription("subscribe", "invalid")
		abortError(c, http.StatusBadRequest, validationMessage(err), "")
		return
	}

	res, err := h.Store.Subscribe(c.Request.Context(), repository.SubscribeInput{
		Email:          req.Email,
		Frequency:      req.Frequency,
		ProblemListIDs: req.ProblemListIDs,
	})
	if errors.Is(err, repository.ErrUnknownProblemList) {
		h.observeSubscription("subscribe", "invalid")
		abortError(c, http.StatusBadRequest, msgUnknownList, "")
		return
	}
	if err != nil {
		h.observeSubscription("subscribe", "error")
		logrus.WithError(err).WithField("email", logging.RedactEmail(req.Email)).Error("Subscribe failed")
		abortError(c, http.StatusInternalServerError, msgSubscribeFailed, "")
		return
	}

	h.observeSubscription("subscribe", "ok")
	logrus.WithFields(logrus.Fields{
		"email":         logging.RedactEmail(res.Subscriber.Email),
		"frequency":     req.Frequency,
		"subscriptions": len(res.Subscriptions),
	}).Info("Subscribed")
	c.JSON(http.StatusOK, SubscribeResponse{OK: true, Data: res})
}

// Unsubscribe deactivates one subscription (subscription_id) or, for links
// sent before per-list subscriptions existed, the whole subscriber (token).
// It answers with an HTML page.
func (h *Handlers) Unsubscribe(c *gin.Context) {
	ctx := c.Request.Context()
	subscriptionID := c.Query("subscription_id")
	token := c.Query("token")

	switch {
	case subscriptionID != "":
		name, err := h.Store.UnsubscribeSubscription(ctx, subscriptionID)
		switch {
		case errors.Is(err, repository.ErrNotFound):
			h.observeSubscription("unsubscribe", "not_found")
			h.unsubscribePage(c, http.StatusNotFound, msgSubscriptionGone, false)
		case err != nil:
			h.observeSubscription("unsubscribe", "error")
			logrus.WithError(err).WithField("subscription_id", subscriptionID).Error("Unsubscribe failed")
			h.unsubscribePage(c, http.StatusInternalServerError, msgUnsubscribeError, false)
		default:
			h.observeSubscription("unsubscribe", "ok")
			h.unsubscribePage(c, http.StatusOK, msgUnsubscribed+" ("+name+" 문제 리스트)", true)
		}

	case token != "":
		err := h.Store.UnsubscribeByToken(ctx, token)
		switch {
		case errors.Is(err, repository.ErrNotFound):
			h.observeSubscription("unsubscribe", "not_found")
			h.unsubscribePage(c, http.StatusNotFound, msgUnsubscribeError, false)
		case err != nil:
			h.observeSubscription("unsubscribe", "error")
			logrus.WithError(err).Error("Unsubscribe by token failed")
			h.unsubscribePage(c, http.StatusInternalServerError, msgUnsubscribeError, false)
		default:
			h.observeSubscription("unsubscribe", "ok")
			h.unsubscribePage(c, http.StatusOK, msgUnsubscribed, true)
		}

	default:
		h.observeSubscription("unsubscribe", "invalid")
		h.unsubscribePage(c, http.StatusBadRequest, msgInvalidLink, false)
	}
}

func (h *Handlers) unsubscribePage(c *gin.Context, status int, message string, success bool) {
	page, err := h.Views.UnsubscribePage(message, success)
	if err != nil {
		logrus.WithError(err).Error("Failed to render unsubscribe page")
		c.String(status, message)
		return
	}
	c.Data(status, "text/html; charset=utf-8", []byte(page))
}

// ListProblemLists returns the active problem lists
func (h *Handlers) ListProblemLists(c *gin.Context) {
	lists, err := h.Store.ListProblemLists(c.Request.Context())
	if err != nil {
		logrus.Errorf("Failed to fetch problem lists: %v", err)
		abortError(c, http.StatusInternalServerError, msgListsFailed, "")
		return
	}
	c.JSON(http.StatusOK, ProblemListsResponse{OK: true, ProblemLists: lists})
}

// ListProblems returns the active problems
func (h *Handlers) ListProblems(c *gin.Context) {
	problems, err := h.Store.ListProblems(c.Request.Context())
	if err != nil {
		logrus.Errorf("Failed to fetch problems: %v", err)
		abortError(c, http.StatusInternalServerError, "Failed to fetch problems", "")
		return
	}
	c.JSON(http.StatusOK, ProblemsResponse{OK: true, Data: problems})
}

// ProblemOfTheDay returns the problem picked by today's date hash
func (h *Handlers) ProblemOfTheDay(c *gin.Context) {
	now := h.Calendar.Now(h.ClockOverride)
	p, err := h.Store.ProblemOfTheDay(c.Request.Context(), calendar.DateHash(now))
	if errors.Is(err, repository.ErrNotFound) {
		abortError(c, http.StatusNotFound, "No active problems", "")
		return
	}
	if err != nil {
		logrus.Errorf("Failed to pick problem of the day: %v", err)
		abortError(c, http.StatusInternalServerError, "Failed to fetch problems", "")
		return
	}
	c.JSON(http.StatusOK, ProblemOfTheDayResponse{OK: true, Date: calendar.FormatDate(now), Problem: p})
}

// SubscriberStats reports active subscriptions per frequency
func (h *Handlers) SubscriberStats(c *gin.Context) {
	stats, err := h.Store.SubscriptionStats(c.Request.Context())
	if err != nil {
		logrus.Errorf("Failed to fetch subscriber stats: %v", err)
		abortError(c, http.StatusInternalServerError, "Failed to fetch subscribers", "")
		return
	}
	c.JSON(http.StatusOK, StatsResponse{OK: true, Stats: stats, Timestamp: h.now()})
}
