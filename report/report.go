// Package report turns the samples of a finished run into plots and a summary.
package report

import (
	"bufio"
	"math"
	"os"
	"path/filepath"
	"sync"

	"github.com/akmonengine/orbit/control"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/samber/lo"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"
	"gopkg.in/yaml.v3"
)

const (
	ERROR_PLOT   = "error.png"
	PATH_PLOT    = "path.png"
	SUMMARY_FILE = "summary.yaml"
)

// Summary holds the tracking statistics of one run.
type Summary struct {
	RunID     string  `yaml:"run_id"`
	Samples   int     `yaml:"samples"`
	StartTime float64 `yaml:"start_time"`
	EndTime   float64 `yaml:"end_time"`
	MeanError float64 `yaml:"mean_error"`
	MaxError  float64 `yaml:"max_error"`
	RMSError  float64 `yaml:"rms_error"`
}

// Summarize computes the error statistics. All fields stay zero without samples.
func Summarize(runID string, samples []control.Sample) Summary {
	s := Summary{RunID: runID, Samples: len(samples)}
	if len(samples) == 0 {
		return s
	}

	errs := lo.Map(samples, func(sample control.Sample, _ int) float64 { return sample.Error })
	s.StartTime = samples[0].Time
	s.EndTime = samples[len(samples)-1].Time
	s.MeanError = stat.Mean(errs, nil)
	s.MaxError = floats.Max(errs)
	s.RMSError = math.Sqrt(floats.Dot(errs, errs) / float64(len(errs)))
	return s
}

type Option func(*PlotSink)

// WithLogger sets the logger; the default discards everything.
func WithLogger(logger *zap.SugaredLogger) Option {
	return func(s *PlotSink) {
		s.logger = logger
	}
}

// WithRunID overrides the generated run identifier.
func WithRunID(id string) Option {
	return func(s *PlotSink) {
		s.runID = id
	}
}

// WithSize sets the plot size in inches.
func WithSize(width, height float64) Option {
	return func(s *PlotSink) {
		s.width, s.height = width, height
	}
}

// PlotSink writes the error plot, the path plot and the summary of each report into
// its directory. Writing happens on its own goroutine; Wait blocks until every
// report has been written.
type PlotSink struct {
	dir    string
	runID  string
	width  float64
	height float64
	logger *zap.SugaredLogger

	wg  sync.WaitGroup
	mu  sync.Mutex
	err error
}

func NewPlotSink(dir string, opts ...Option) *PlotSink {
	s := &PlotSink{
		dir:    dir,
		runID:  uuid.NewString(),
		width:  8,
		height: 6,
		logger: zap.NewNop().Sugar(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *PlotSink) RunID() string {
	return s.runID
}

// Report starts writing and returns immediately.
func (s *PlotSink) Report(samples []control.Sample) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		err := s.write(samples)
		if err != nil {
			s.logger.Errorw("cannot write report", "dir", s.dir, "error", err)
		} else {
			s.logger.Infow("report written", "dir", s.dir, "samples", len(samples), "run_id", s.runID)
		}

		s.mu.Lock()
		s.err = multierr.Append(s.err, err)
		s.mu.Unlock()
	}()
}

// Wait returns every error met while writing, combined.
func (s *PlotSink) Wait() error {
	s.wg.Wait()
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

func (s *PlotSink) write(samples []control.Sample) error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return errors.Wrap(err, "cannot create report directory")
	}

	err := s.writeSummary(Summarize(s.runID, samples))
	if len(samples) == 0 {
		return err
	}
	return multierr.Combine(
		err,
		s.writeErrorPlot(samples),
		s.writePathPlot(samples),
	)
}

func (s *PlotSink) writeSummary(summary Summary) error {
	out, err := yaml.Marshal(summary)
	if err != nil {
		return errors.Wrap(err, "cannot encode summary")
	}
	return errors.Wrap(os.WriteFile(filepath.Join(s.dir, SUMMARY_FILE), out, 0o644), "cannot write summary")
}

func (s *PlotSink) writeErrorPlot(samples []control.Sample) error {
	p := plot.New()
	p.Title.Text = "Tracking error"
	p.X.Label.Text = "Time (s)"
	p.Y.Label.Text = "Error (m)"

	pts := lo.Map(samples, func(sample control.Sample, _ int) plotter.XY {
		return plotter.XY{X: sample.Time, Y: sample.Error}
	})
	line, err := plotter.NewLine(plotter.XYs(pts))
	if err != nil {
		return errors.Wrap(err, "error plot")
	}
	line.LineStyle.Width = vg.Points(1.5)
	p.Add(line, plotter.NewGrid())

	return s.savePNG(p, ERROR_PLOT)
}

func (s *PlotSink) writePathPlot(samples []control.Sample) error {
	p := plot.New()
	p.Title.Text = "Commanded and sensed path"
	p.X.Label.Text = "x (m)"
	p.Y.Label.Text = "y (m)"

	commanded := lo.Map(samples, func(sample control.Sample, _ int) plotter.XY {
		return plotter.XY{X: sample.Commanded[0], Y: sample.Commanded[1]}
	})
	sensed := lo.Map(samples, func(sample control.Sample, _ int) plotter.XY {
		return plotter.XY{X: sample.Sensed[0], Y: sample.Sensed[1]}
	})

	commandedLine, err := plotter.NewLine(plotter.XYs(commanded))
	if err != nil {
		return errors.Wrap(err, "path plot")
	}
	commandedLine.Color = plotutil.Color(0)
	commandedLine.Dashes = []vg.Length{vg.Points(4), vg.Points(2)}

	sensedLine, err := plotter.NewLine(plotter.XYs(sensed))
	if err != nil {
		return errors.Wrap(err, "path plot")
	}
	sensedLine.Color = plotutil.Color(1)

	p.Add(plotter.NewGrid(), commandedLine, sensedLine)
	p.Legend.Add("commanded", commandedLine)
	p.Legend.Add("sensed", sensedLine)
	p.Legend.Top = true

	equalAspect(p)
	return s.savePNG(p, PATH_PLOT)
}

// equalAspect widens the narrower axis so one metre has the same length on both.
// The canvas is assumed square.
func equalAspect(p *plot.Plot) {
	dx := p.X.Max - p.X.Min
	dy := p.Y.Max - p.Y.Min
	span := math.Max(dx, dy)
	cx := (p.X.Max + p.X.Min) / 2
	cy := (p.Y.Max + p.Y.Min) / 2
	p.X.Min, p.X.Max = cx-span/2, cx+span/2
	p.Y.Min, p.Y.Max = cy-span/2, cy+span/2
}

func (s *PlotSink) savePNG(p *plot.Plot, name string) error {
	width, height := s.width, s.height
	if name == PATH_PLOT {
		height = width
	}

	c := vgimg.NewWith(
		vgimg.UseWH(vg.Length(width)*vg.Inch, vg.Length(height)*vg.Inch),
		vgimg.UseDPI(96),
	)
	p.Draw(draw.New(c))

	f, err := os.Create(filepath.Join(s.dir, name))
	if err != nil {
		return errors.Wrapf(err, "cannot create %s", name)
	}
	defer f.Close()

	bw := bufio.NewWriter(f)
	if _, err := (vgimg.PngCanvas{Canvas: c}).WriteTo(bw); err != nil {
		return errors.Wrapf(err, "cannot write %s", name)
	}
	return errors.Wrapf(bw.Flush(), "cannot write %s", name)
}
