package ui

import (
	"fmt"
	"html/template"
	"net/http"
	"strconv"

	"biasev/app"
	"biasev/domain/stats"
	"biasev/internal/notes"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// inputField is one prediction form input
type inputField struct {
	Name  string
	Value string
}

// pageView is everything the workbench page renders, top to bottom
type pageView struct {
	Title string

	UploadMessage string
	UploadError   string
	Preview       *app.DatasetPreview
	Columns       []string
	MissingInputs []string

	Target     string
	Anova      *stats.AnovaTable
	AnovaError string

	CompositionIntro string
	Composition      template.HTML

	ModelError   string
	Fields       []inputField
	Prediction   string
	PredictError string
}

// newPageView builds the page for the session's current state with an
// untouched prediction form
func (s *Server) newPageView(c *gin.Context) *pageView {
	id := sessionID(c)
	view := &pageView{
		Title:            "BIA Disease Severity Evaluation",
		CompositionIntro: notes.CompositionIntro,
	}

	if preview := s.datasets.Preview(id, s.opts.PreviewRows); preview != nil {
		view.Preview = preview
		view.Columns = preview.Table.Columns
		view.MissingInputs = s.predictions.MissingFeatures(preview.Table)
	}

	schema, err := s.predictions.Schema()
	if err != nil {
		view.ModelError = err.Error()
		return view
	}
	for _, field := range schema.Fields {
		view.Fields = append(view.Fields, inputField{
			Name:  field.Name,
			Value: strconv.FormatFloat(field.Default, 'g', -1, 64),
		})
	}
	return view
}

func (s *Server) handleIndex(c *gin.Context) {
	s.renderTemplate(c, "index.html", s.newPageView(c))
}

func (s *Server) handleUpload(c *gin.Context) {
	id := sessionID(c)

	// Leave room for multipart framing around the file itself
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, s.opts.MaxUploadBytes+1<<20)

	var uploadErr error
	var filename string
	fileHeader, err := c.FormFile("dataset")
	if err != nil {
		uploadErr = fmt.Errorf("no file received: %w", err)
	} else {
		filename = fileHeader.Filename
		file, err := fileHeader.Open()
		if err != nil {
			uploadErr = fmt.Errorf("failed to open uploaded file: %w", err)
		} else {
			defer file.Close()
			_, uploadErr = s.datasets.Upload(c.Request.Context(), id, filename, file)
		}
	}
	if uploadErr != nil {
		s.datasets.Clear(id)
	}

	view := s.newPageView(c)
	if uploadErr != nil {
		s.logger.Info("Upload failed", zap.String("file", filename), zap.Error(uploadErr))
		view.UploadError = uploadErr.Error()
	} else {
		view.UploadMessage = fmt.Sprintf("Loaded %s", filename)
	}
	s.renderTemplate(c, "index.html", view)
}

func (s *Server) handleAnova(c *gin.Context) {
	req := stats.AnovaRequest{
		Target:     c.PostForm("target"),
		Predictors: c.PostFormArray("predictor"),
	}

	result, err := s.analysis.RunForSession(c.Request.Context(), sessionID(c), req)

	view := s.newPageView(c)
	view.Target = req.Target
	if err != nil {
		view.AnovaError = err.Error()
	} else {
		view.Anova = result
	}
	s.renderTemplate(c, "index.html", view)
}

func (s *Server) handleComposition(c *gin.Context) {
	view := s.newPageView(c)
	view.Composition = notes.CompositionHTML()
	s.renderTemplate(c, "index.html", view)
}

func (s *Server) handlePredict(c *gin.Context) {
	view := s.newPageView(c)
	if view.ModelError != "" {
		s.renderTemplate(c, "index.html", view)
		return
	}

	form := make(map[string]string, len(view.Fields))
	for i, field := range view.Fields {
		value := c.PostForm(field.Name)
		form[field.Name] = value
		if value != "" {
			view.Fields[i].Value = value
		}
	}

	prediction, err := s.predictions.PredictForm(c.Request.Context(), form)
	if err != nil {
		view.PredictError = err.Error()
	} else {
		view.Prediction = prediction.Display()
	}
	s.renderTemplate(c, "index.html", view)
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":       "ok",
		"model_loaded": s.predictions.Available(),
	})
}
