// Command brtrender wires a GlobalConfig, an HRTF/SOS/ambisonic
// service set, and a render-graph manager, then exits once setup is
// complete; it does not drive frame ticks itself.
// It is an integration example, not a full host: SOFA loading and
// physical audio I/O are supplied by whatever implements
// internal/hostio's interfaces.
package main

import (
	"fmt"
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/pflag"

	"github.com/GrupoDiana/brt/internal/ambisonic"
	"github.com/GrupoDiana/brt/internal/config"
	"github.com/GrupoDiana/brt/internal/graph"
	"github.com/GrupoDiana/brt/internal/hrtf"
	"github.com/GrupoDiana/brt/internal/listener"
	"github.com/GrupoDiana/brt/internal/mathutil"
	"github.com/GrupoDiana/brt/internal/sos"
	"github.com/GrupoDiana/brt/internal/source"
)

var logger = log.NewWithOptions(os.Stderr, log.Options{Prefix: "brtrender"})

func main() {
	var (
		configPath  = pflag.StringP("config", "c", "", "YAML GlobalConfig override file")
		gridStep    = pflag.Float64("grid-step", 5, "HRTF quasi-uniform grid step, degrees")
		ambOrder    = pflag.IntP("ambisonic-order", "o", 3, "ambisonic encoding order")
		interpolate = pflag.Bool("interpolate", true, "barycentric-interpolate HRTF queries instead of snapping to the nearest grid point")
	)
	pflag.Parse()

	cfg := config.Default()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			logger.Fatal("load config", "path", *configPath, "err", err)
		}
		cfg = loaded
	}
	cfg.AmbisonicOrder = *ambOrder
	_ = *interpolate // parsed but unused: the listener node has no interpolation setting

	if err := cfg.Validate(); err != nil {
		logger.Fatal("invalid config", "err", err)
	}

	manager := graph.NewManager()

	src := source.NewNode("source1", source.Simple, cfg.BlockSize)
	if err := manager.RegisterNode(src); err != nil {
		logger.Fatal("register source", "err", err)
	}

	lis := listener.NewNode("listener1", cfg, config.DefaultCranialGeometry())
	if err := manager.RegisterNode(lis); err != nil {
		logger.Fatal("register listener", "err", err)
	}

	logger.Info("demo HRTF database: a flat response around the equator and silent IRs at the poles (wire a real SOFA loader for production use)")
	hrtfSvc, err := buildDemoHRTFService(cfg, *gridStep)
	if err != nil {
		logger.Fatal("build demo HRTF service", "err", err)
	}

	sosTable, err := buildDemoSOSTable(cfg)
	if err != nil {
		logger.Fatal("build demo SOS table", "err", err)
	}

	bir, err := ambisonic.DeriveBIR(hrtfSvc, cfg.AmbisonicOrder, ambisonic.N3D, cfg.BlockSize)
	if err != nil {
		logger.Fatal("derive ambisonic BIR", "err", err)
	}
	if err := lis.SetServices(hrtfSvc, sosTable, bir); err != nil {
		logger.Fatal("wire listener services", "err", err)
	}

	manager.EndSetup()
	logger.Info("render graph ready", "blockSize", cfg.BlockSize, "sampleRate", cfg.SampleRate, "ambisonicOrder", cfg.AmbisonicOrder)

	fmt.Println("brtrender: wiring complete; drive manager.Tick() from an internal/hostio.AudioHost implementation")
}

// buildDemoHRTFService stands in for a real SOFA-backed load: a flat,
// non-spatialising response every 30 degrees around the equator and
// all-zero IRs at both poles, from which the grid is filled; enough to
// exercise the full setup pipeline without a host-supplied dataset.
func buildDemoHRTFService(cfg config.GlobalConfig, gridStep float64) (*hrtf.Service, error) {
	const irLen = 128
	svc := hrtf.NewService(hrtf.GridConfig{StepDegrees: gridStep}, cfg.Window, cfg.SampleRate)
	svc.BeginSetup(irLen, hrtf.NearestPoint, cfg.BlockSize)

	for az := 0.0; az < 360; az += 30 {
		h := hrtf.HRIR{LeftIR: make([]float64, irLen), RightIR: make([]float64, irLen)}
		h.LeftIR[4] = 1
		h.RightIR[4] = 1
		if err := svc.AddHRIR(az, 0, h); err != nil {
			return nil, err
		}
	}
	if err := svc.AddHRIR(0, 90, hrtf.HRIR{LeftIR: make([]float64, irLen), RightIR: make([]float64, irLen)}); err != nil {
		return nil, err
	}
	if err := svc.AddHRIR(0, 270, hrtf.HRIR{LeftIR: make([]float64, irLen), RightIR: make([]float64, irLen)}); err != nil {
		return nil, err
	}
	if err := svc.EndSetup(); err != nil {
		return nil, err
	}
	return svc, nil
}

func buildDemoSOSTable(cfg config.GlobalConfig) (*sos.Table, error) {
	table := sos.NewTable(cfg.NearFieldDistanceLimit)
	table.BeginSetup()
	for _, d := range []float64{0.2, 0.5, 1.0} {
		for _, az := range []float64{-90, 0, 90} {
			err := table.AddCoefficients(sos.Entry{
				Distance:          d,
				InterauralAzimuth: az,
				Left0:             mathutil.IdentityBiquad,
				Left1:             mathutil.IdentityBiquad,
				Right0:            mathutil.IdentityBiquad,
				Right1:            mathutil.IdentityBiquad,
			})
			if err != nil {
				return nil, err
			}
		}
	}
	if err := table.EndSetup(); err != nil {
		return nil, err
	}
	return table, nil
}
