package main

import (
	"incall-control/internal/httpapi"
	"incall-control/internal/rbac"

	"github.com/gin-gonic/gin"
)

// registerRoutes wires HTTP routes to handlers.
// Keep this file free of business logic. Handlers should delegate to internal modules.
func registerRoutes(r *gin.Engine, h httpapi.Handlers, authMW, capMW gin.HandlerFunc) {
	// public
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	// AUTH routes (token issuance).
	// NOTE: placeholder credential handling; see Handlers.Login.
	r.POST("/v1/auth/login", h.Login)

	// protected API group
	v1 := r.Group("/v1")
	v1.Use(authMW)
	v1.Use(rbac.RequireDevice())

	// COMMAND routes: the in-call UI surface. Fire-and-forget by contract;
	// every parsed request is answered 202 regardless of dispatch outcome.
	commands := v1.Group("")
	commands.Use(rbac.RequireAnyRole(rbac.RoleInCallUI, rbac.RoleSuperAdmin))
	commands.Use(capMW)
	{
		perCall := commands.Group("/call")
		{
			perCall.POST("/:call_id/answer", h.AnswerCall)
			perCall.POST("/:call_id/reject", h.RejectCall)
			perCall.POST("/:call_id/disconnect", h.DisconnectCall)
			perCall.POST("/:call_id/hold", h.Hold)
		}

		calls := commands.Group("/calls")
		{
			calls.POST("/merge", h.Merge)
			calls.POST("/add", h.AddCall)
			calls.POST("/swap", h.Swap)
		}

		audio := commands.Group("/audio")
		{
			audio.POST("/mute", h.Mute)
			audio.POST("/speaker", h.Speaker)
			audio.POST("/mode", h.SetAudioMode)
		}

		dtmf := commands.Group("/dtmf")
		{
			dtmf.POST("/play", h.PlayDtmfTone)
			dtmf.POST("/stop", h.StopDtmfTone)
		}
	}

	// AUDIT routes: internal diagnostics, never the in-call UI.
	auditGroup := v1.Group("/audit")
	auditGroup.Use(rbac.RequireAnyRole(rbac.RoleDiagnostics, rbac.RoleSuperAdmin))
	{
		auditGroup.GET("/events", h.ListAuditEvents)
	}
}
