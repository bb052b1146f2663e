package webhookapi

import (
	"errors"
	"net/http"

	"callcenter-platform/internal/audit"
	"callcenter-platform/internal/notify"
	"callcenter-platform/internal/reconcile"
	"callcenter-platform/internal/taskrouter"
	"callcenter-platform/pkg/logger"

	"github.com/gin-gonic/gin"
)

const signatureHeader = "X-Twilio-Signature"

// Handler ingests TaskRouter webhook deliveries: normalize, reconcile,
// dispatch, audit.
//
// Response contract: the provider retries on non-2xx, so the handler answers
// 200 {success:true} whenever the delivery is well-formed enough to process,
// including when persistence fails mid-transition. A swallowed persistence
// failure is logged with the event identifiers; retried duplicates are
// harmless under last-write-wins. Only a missing EventType (or a bad
// signature, when validation is enabled) is rejected.

type Handler struct {
	Engine     *reconcile.Engine
	Dispatcher *notify.Dispatcher
	Audit      *audit.Service

	// AuthToken enables signature validation when non-empty. WebhookURL is
	// the full public URL of this endpoint (the signature covers it).
	AuthToken  string
	WebhookURL string
}

func (h Handler) HandleEvent(c *gin.Context) {
	log := logger.FromGin(c)

	if h.Engine == nil || h.Dispatcher == nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "webhook pipeline not configured"})
		return
	}

	if err := c.Request.ParseForm(); err != nil {
		log.Warn("webhook form parse failed", "err", err)
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid form"})
		return
	}
	form := c.Request.PostForm

	if h.AuthToken != "" {
		if !ValidSignature(h.AuthToken, h.WebhookURL, form, c.GetHeader(signatureHeader)) {
			log.Warn("webhook signature rejected")
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "invalid signature"})
			return
		}
	}

	ev, err := taskrouter.Normalize(form)
	if err != nil {
		if errors.Is(err, taskrouter.ErrMalformedWebhook) {
			log.Warn("malformed webhook delivery")
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "missing EventType"})
			return
		}
		log.Error("webhook normalize failed", "err", err)
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "unprocessable delivery"})
		return
	}

	ctx := c.Request.Context()

	outcomes, err := h.Engine.Apply(ctx, ev)
	if err != nil {
		// Deliberate: the mirror may silently lose this write, but a non-2xx
		// would only trigger a retry storm against a store that is already
		// struggling.
		log.Error("reconciliation failed",
			"event_type", ev.EventType,
			"resource", ev.Resource,
			"err", err,
		)
	} else {
		h.Dispatcher.Dispatch(ctx, outcomes)
	}

	if h.Audit != nil {
		if auditErr := h.Audit.RecordEvent(ctx, ev, len(outcomes)); auditErr != nil {
			log.Warn("webhook audit append failed", "err", auditErr)
		}
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}
