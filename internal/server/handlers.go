package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/abhisek/stresslens/internal/app"
	"github.com/abhisek/stresslens/internal/features"
	"github.com/abhisek/stresslens/internal/insight"
)

// maxBodyBytes bounds request bodies; feature payloads are tiny.
const maxBodyBytes = 64 << 10

// decodeBody reads a flat JSON object, keeping numbers as json.Number so
// integral checks see the literal the client sent.
func decodeBody(c *gin.Context) (map[string]any, error) {
	raw, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, maxBodyBytes))
	if err != nil {
		return nil, features.FieldErr("body", fmt.Sprintf("unreadable: %v", err))
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil, features.FieldErr("body", "empty request body")
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var body map[string]any
	if err := dec.Decode(&body); err != nil {
		return nil, features.FieldErr("body", fmt.Sprintf("invalid JSON object: %v", err))
	}
	if body == nil {
		return nil, features.FieldErr("body", "expected a JSON object")
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, features.FieldErr("body", "unexpected data after JSON object")
	}
	return body, nil
}

func (s *Server) vector(c *gin.Context) (features.Vector, map[string]any, bool) {
	body, err := decodeBody(c)
	if err != nil {
		s.abortWithError(c, err)
		return features.Vector{}, nil, false
	}
	v, err := features.Parse(body)
	if err != nil {
		s.abortWithError(c, err)
		return features.Vector{}, nil, false
	}
	return v, body, true
}

func (s *Server) health(c *gin.Context) {
	model := "disabled"
	if s.app.InsightEnabled() {
		model = s.app.Composer.ModelID()
	}
	c.JSON(http.StatusOK, gin.H{
		"status":        "ok",
		"model_version": s.app.Forest.Version(),
		"trees":         s.app.Forest.Size(),
		"llm":           model,
	})
}

func (s *Server) predict(c *gin.Context) {
	v, _, ok := s.vector(c)
	if !ok {
		return
	}
	res, err := s.app.Classifier.Predict(v)
	if err != nil {
		s.abortWithError(c, err)
		return
	}
	predictionsTotal.WithLabelValues(res.Class.String()).Inc()
	c.JSON(http.StatusOK, gin.H{"stress_level": res.Class})
}

func (s *Server) predictScore(c *gin.Context) {
	v, _, ok := s.vector(c)
	if !ok {
		return
	}
	res, err := s.app.Classifier.Predict(v)
	if err != nil {
		s.abortWithError(c, err)
		return
	}
	predictionsTotal.WithLabelValues(res.Class.String()).Inc()
	c.JSON(http.StatusOK, gin.H{"stress_level": res.Class, "score": res.Confidence})
}

func (s *Server) analyze(c *gin.Context) {
	v, _, ok := s.vector(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, s.app.Rules.Analyze(v))
}

func (s *Server) explain(c *gin.Context, mode insight.Mode, message string, v features.Vector) (*insight.Insight, app.Assessment, bool) {
	out, as, err := s.app.Explain(c.Request.Context(), v, mode, message)
	insightsTotal.WithLabelValues(string(mode), outcome(err)).Inc()
	if err != nil {
		s.abortWithError(c, err)
		return nil, as, false
	}
	predictionsTotal.WithLabelValues(as.Prediction.Class.String()).Inc()
	return out, as, true
}

func (s *Server) chat(c *gin.Context) {
	v, body, ok := s.vector(c)
	if !ok {
		return
	}
	var message string
	if raw, present := body["message"]; present {
		str, isString := raw.(string)
		if !isString {
			s.abortWithError(c, features.FieldErr("message", "must be a string"))
			return
		}
		message = str
	}

	out, _, ok := s.explain(c, insight.ModeChat, message, v)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"reply": out.Text})
}

func (s *Server) insightText(c *gin.Context) {
	v, _, ok := s.vector(c)
	if !ok {
		return
	}
	out, as, ok := s.explain(c, insight.ModeFreeTextInsight, "", v)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"stress_level": as.Prediction.Class,
		"score":        as.Prediction.Confidence,
		"insight":      out.Text,
	})
}

func (s *Server) insightPrediction(c *gin.Context) {
	v, _, ok := s.vector(c)
	if !ok {
		return
	}
	out, _, ok := s.explain(c, insight.ModeStructuredPrediction, "", v)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, out.Prediction)
}

func (s *Server) insightRecommendation(c *gin.Context) {
	v, _, ok := s.vector(c)
	if !ok {
		return
	}
	out, _, ok := s.explain(c, insight.ModeStructuredRecommendation, "", v)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, out.Recommendation)
}
