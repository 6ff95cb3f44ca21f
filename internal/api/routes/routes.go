package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/yoockh/prepwise/internal/api/handlers"
	"github.com/yoockh/prepwise/internal/api/middleware"
)

type Deps struct {
	Session  *handlers.SessionHandler
	Resume   *handlers.ResumeHandler
	Question *handlers.QuestionHandler
	Answer   *handlers.AnswerHandler
	Report   *handlers.ReportHandler
	WS       *handlers.WSHandler
}

func RegisterRoutes(r *gin.Engine, d Deps) {
	// must precede the routes so preflight and 404s carry the headers
	r.Use(middleware.CORS())

	r.GET("/ping", func(c *gin.Context) {
		c.JSON(200, gin.H{"message": "pong"})
	})

	r.POST("/sessions", d.Session.Create)
	r.GET("/sessions/:session_id", d.Session.Get)
	r.GET("/sessions/:session_id/questions", d.Session.Questions)
	r.GET("/sessions/:session_id/answers", d.Session.Answers)
	r.GET("/sessions/:session_id/report", d.Report.Get)

	r.POST("/parse-resume", d.Resume.Parse)
	r.POST("/generate-questions", d.Question.Generate)
	r.POST("/submit-answer", d.Answer.Submit)
	r.POST("/generate-report", d.Report.Generate)

	r.GET("/ws/session/:session_id", d.WS.SessionWS)
}
