package api

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"claim-risk/internal/store"
	"claim-risk/internal/util"
)

func (s *Server) handleAnalyzeClaim(c *gin.Context) {
	timer := util.StartTimer()
	requestID := c.GetString("request_id")

	var req AnalyzeClaimRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logrus.WithError(err).WithField("request_id", requestID).Debug("reject claim payload")
		s.renderError(c, http.StatusBadRequest, ErrInvalidInput)
		return
	}

	prediction := s.evaluator.Evaluate(req.ClaimInput())
	payload, err := json.Marshal(prediction)
	if err != nil {
		s.renderInternal(c, err)
		return
	}

	s.recordDecision(requestID, prediction.DecisionClass)
	s.latency.Wait()

	if s.notifier != nil {
		s.notifier.Broadcast(PredictionEvent{
			Type:          "prediction",
			RequestID:     requestID,
			Score:         prediction.Score,
			DecisionClass: prediction.DecisionClass,
		})
	}

	logrus.WithFields(logrus.Fields{
		"request_id":     requestID,
		"score":          prediction.Score,
		"decision_class": prediction.DecisionClass,
		"factors":        len(prediction.Factors),
		"duration":       timer.ElapsedMs(),
	}).Info("claim analyzed")

	c.Data(http.StatusOK, "application/json; charset=utf-8", payload)
}

func (s *Server) recordDecision(requestID, decisionClass string) {
	if s.db == nil {
		return
	}
	if err := s.db.IncrementTally(store.DayKey(s.now()), decisionClass); err != nil {
		logrus.WithError(err).WithField("request_id", requestID).Warn("record decision tally")
	}
}
