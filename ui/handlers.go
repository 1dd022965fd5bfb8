package ui

import (
	"bytes"
	stderrors "errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"pairstat/adapters/datareadiness/coercer"
	"pairstat/adapters/tabular"
	"pairstat/app"
	"pairstat/domain/dataset"
	"pairstat/internal/cleaning"
	"pairstat/internal/errors"
	"pairstat/internal/report"

	"github.com/gin-gonic/gin"
)

// uploadField is the multipart field carrying the data file
const uploadField = "file"

// ColumnInfo describes one column of an uploaded file
type ColumnInfo struct {
	Index        int     `json:"index"`
	Name         string  `json:"name"`
	Values       int     `json:"values"`
	NumericRatio float64 `json:"numeric_ratio"`
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// handleColumns lists the columns of an upload so the dashboard can offer
// X, Y and category choices.
func (s *Server) handleColumns(c *gin.Context) {
	ds, _, err := s.loadUpload(c)
	if err != nil {
		s.respondError(c, err)
		return
	}

	tc := coercer.NewTypeCoercer(coercer.DefaultCoercionConfig())
	columns := make([]ColumnInfo, 0, len(ds.Columns()))
	for i, name := range ds.Columns() {
		col, _ := ds.Column(name)
		dist := tc.AnalyzeTypeDistribution(col.Values)
		columns = append(columns, ColumnInfo{Index: i, Name: name, Values: dist.ValidCount, NumericRatio: dist.NumericRatio})
	}

	category := s.cfg.Analysis.CategoryColumn
	if v := c.PostForm("category"); v != "" {
		category = v
	}
	c.JSON(http.StatusOK, gin.H{
		"rows":            ds.Len(),
		"columns":         columns,
		"category_column": category,
		"categories":      cleaning.Categories(ds, category),
	})
}

func (s *Server) handleAnalyze(c *gin.Context) {
	rep, ok := s.analyze(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, rep)
}

// handleReport renders the analysis as an HTML page, or as markdown with
// ?format=markdown.
func (s *Server) handleReport(c *gin.Context) {
	rep, ok := s.analyze(c)
	if !ok {
		return
	}
	if c.Query("format") == "markdown" {
		c.Data(http.StatusOK, "text/markdown; charset=utf-8", []byte(report.Markdown(rep)))
		return
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", report.HTML(rep))
}

// handleExport downloads the cleaned data with the k column. The format is
// taken from ?format=csv|xlsx and defaults to xlsx.
func (s *Server) handleExport(c *gin.Context) {
	format := tabular.Format(strings.ToLower(c.DefaultQuery("format", string(tabular.FormatXLSX))))
	if format != tabular.FormatCSV && format != tabular.FormatXLSX {
		s.respondError(c, errors.ValidationError("format must be csv or xlsx"))
		return
	}

	rep, ok := s.analyze(c)
	if !ok {
		return
	}

	var buf bytes.Buffer
	if err := s.service.Export(&buf, rep, format); err != nil {
		s.respondError(c, err)
		return
	}

	contentType := "text/csv; charset=utf-8"
	if format == tabular.FormatXLSX {
		contentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	}
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, app.ExportFileName(rep, format)))
	c.Data(http.StatusOK, contentType, buf.Bytes())
}

// handleSweep correlates every pair of the comma-separated columns field,
// or of every numeric column when it is empty.
func (s *Server) handleSweep(c *gin.Context) {
	ds, _, err := s.loadUpload(c)
	if err != nil {
		s.respondError(c, err)
		return
	}
	var columns []string
	for _, name := range strings.Split(c.PostForm("columns"), ",") {
		if name = strings.TrimSpace(name); name != "" {
			columns = append(columns, name)
		}
	}

	results, err := s.service.Sweep(c.Request.Context(), ds, columns)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"pairs": results})
}

// analyze runs the shared upload → request → Analyze path. On failure the
// error response is already written.
func (s *Server) analyze(c *gin.Context) (*app.Report, bool) {
	ds, filename, err := s.loadUpload(c)
	if err != nil {
		s.respondError(c, err)
		return nil, false
	}
	req, err := s.parseRequest(c)
	if err != nil {
		s.respondError(c, err)
		return nil, false
	}
	req.Source = filename

	rep, err := s.service.Analyze(c.Request.Context(), ds, req)
	if err != nil {
		s.respondError(c, err)
		return nil, false
	}
	return rep, true
}

func (s *Server) loadUpload(c *gin.Context) (*dataset.Dataset, string, error) {
	file, header, err := c.Request.FormFile(uploadField)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if stderrors.As(err, &tooLarge) {
			return nil, "", errors.New(errors.CodeRequestTooLarge,
				fmt.Sprintf("upload exceeds the %d MB limit", s.cfg.Server.MaxUploadMB))
		}
		return nil, "", errors.ValidationError(fmt.Sprintf("no file uploaded in field %q", uploadField))
	}
	defer file.Close()

	format, err := tabular.DetectFormat(header.Filename)
	if err != nil {
		return nil, "", err
	}
	opts := tabular.DefaultReaderOptions()
	opts.Sheet = c.PostForm("sheet")

	ds, err := tabular.Read(c.Request.Context(), file, format, opts)
	if err != nil {
		return nil, "", err
	}
	s.logger.Debug("loaded upload %s (%d columns, %d rows)", header.Filename, len(ds.Columns()), ds.Len())
	return ds, header.Filename, nil
}

func (s *Server) parseRequest(c *gin.Context) (app.Request, error) {
	req := app.Request{
		Selection: dataset.Selection{
			X: strings.TrimSpace(c.PostForm("x")),
			Y: strings.TrimSpace(c.PostForm("y")),
		},
		CategoryColumn: c.DefaultPostForm("category", s.cfg.Analysis.CategoryColumn),
		CategoryValue:  c.PostForm("category_value"),
	}
	if req.Selection.X == "" || req.Selection.Y == "" {
		return req, errors.ValidationError("form fields x and y are required")
	}

	if v := c.PostForm("keep_zero_x"); v != "" {
		keep, err := strconv.ParseBool(v)
		if err != nil {
			return req, errors.InvalidInput("keep_zero_x must be a boolean")
		}
		req.KeepZeroX = keep
	}

	if v := c.PostForm("predict"); v != "" {
		for _, part := range strings.Split(v, ",") {
			f, err := strconv.ParseFloat(strings.TrimSpace(part), 64)
			if err != nil {
				return req, errors.InvalidInput(fmt.Sprintf("predict value %q is not a number", part))
			}
			req.Predict = append(req.Predict, f)
		}
	}
	return req, nil
}

// respondError writes {code, message} with the status HTTPStatus picks for err
func (s *Server) respondError(c *gin.Context, err error) {
	appErr := errors.FromDomain(err)
	status := errors.HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("%s %s: %v", c.Request.Method, c.Request.URL.Path, err)
	}
	c.AbortWithStatusJSON(status, appErr)
}
