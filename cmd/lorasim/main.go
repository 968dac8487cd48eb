// Command lorasim wires a scene file to a running simulation: load the
// topology, build the virtual-time clock and network event loop, spin up
// one node task per scene node, attach the UI/control bridge, and serve
// everything until a signal or CLI exit. Grounded on the teacher's
// otns_main/otns_main.go entrypoint, trimmed to this repo's smaller
// component set.
package main

import (
	"context"
	"flag"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/lorasim/lorasim/bridge"
	"github.com/lorasim/lorasim/bridge/lorapb"
	"github.com/lorasim/lorasim/bridge/statslog"
	"github.com/lorasim/lorasim/cli"
	"github.com/lorasim/lorasim/medium"
	"github.com/lorasim/lorasim/node"
	"github.com/lorasim/lorasim/node/testfirmware"
	"github.com/lorasim/lorasim/progctx"
	"github.com/lorasim/lorasim/scene"
	"github.com/lorasim/lorasim/simlog"
	"github.com/lorasim/lorasim/vclock"
	"google.golang.org/grpc"
)

type mainArgs struct {
	scenePath string
	speed     uint
	logLevel  string
	logPath   string
	grpcAddr  string
	headless  bool
}

func parseArgs() mainArgs {
	var a mainArgs
	flag.StringVar(&a.scenePath, "scene", "", "path to a scene JSON file")
	flag.UintVar(&a.speed, "speed", 100, "initial simulation speed, percent of real time")
	flag.StringVar(&a.logLevel, "log", "warn", "log level: debug, info, warn, error")
	flag.StringVar(&a.logPath, "statslog", "", "optional CSV path to log counters and measurements to")
	flag.StringVar(&a.grpcAddr, "grpc", ":8999", "address to serve the bridge gRPC service on, empty to disable")
	flag.BoolVar(&a.headless, "headless", false, "skip the interactive CLI, run until canceled")
	flag.Parse()
	return a
}

func main() {
	args := parseArgs()
	simlog.SetLevel(args.logLevel)

	if args.scenePath == "" {
		fmt.Fprintln(os.Stderr, "lorasim: -scene is required")
		os.Exit(2)
	}

	f, err := os.Open(args.scenePath)
	simlog.FatalIfError(err)
	sc, err := scene.Load(f)
	_ = f.Close()
	simlog.FatalIfError(err)

	ctx := progctx.New(context.Background())
	handleSignals(ctx)

	clock := vclock.NewDriver(uint32(args.speed))
	loop := medium.NewLoop(sc, clock, nil)

	vis, inboundCommands, grpcTransport := buildBridge(args)
	loop.SetSink(bridge.MediumSink{Visualizer: vis})

	tasks := make(map[scene.NodeID]*node.Task, len(sc.Nodes))
	for _, n := range sc.Nodes {
		fw := testfirmware.New()
		task := node.NewTask(n.ID, loop.Output(), fw)
		tasks[n.ID] = task
		loop.RegisterNode(n.ID, task.InputQueue())
		go task.Run(ctx) // Run registers and releases its own wait-group entry.
	}

	if inboundCommands != nil {
		go relayCommands(inboundCommands, loop, tasks, vis)
	}

	vis.SceneLoaded(len(sc.Nodes), len(sc.Obstacles), [2]float64{sc.WorldTopLeft.X, sc.WorldTopLeft.Y},
		[2]float64{sc.WorldBottomRight.X, sc.WorldBottomRight.Y})

	go loop.Run(ctx) // Run registers and releases its own wait-group entry.

	if grpcTransport != nil {
		lis, err := net.Listen("tcp", args.grpcAddr)
		if err != nil {
			simlog.Errorf("grpc listen failed: %+v", err)
		} else {
			ctx.WaitAdd("grpc", 1)
			go func() {
				defer ctx.WaitDone("grpc")
				_ = grpcTransport.Serve(lis)
			}()
			ctx.Defer(grpcTransport.GracefulStop)
		}
	}

	if !args.headless {
		cliCommands := make(chan bridge.Command, 16)
		go relayCommands(cliCommands, loop, tasks, vis)
		runner := cli.NewRunner(cliCommands)
		go func() {
			err := cli.RunCli(runner, nil)
			ctx.Cancel(err)
		}()
	}

	ctx.Wait()
	vis.VisualizationEnded()
	os.Exit(0)
}

// buildBridge assembles the Visualizer fan-out: a gRPC-served bridge
// (unless disabled) and an optional CSV statslog writer, matching the
// teacher's visualizeMulti.NewMultiVisualizer composition in
// otns_main.go. inboundCommands carries whatever gRPC clients push back
// (nil when -grpc=""); grpcTransport is nil under the same condition.
func buildBridge(args mainArgs) (vis bridge.Visualizer, inboundCommands <-chan bridge.Command, grpcTransport *grpc.Server) {
	var targets []bridge.Visualizer

	if args.grpcAddr != "" {
		bridgeSrv := lorapb.NewServer()
		targets = append(targets, bridgeSrv)
		inboundCommands = bridgeSrv.Commands()

		grpcTransport = lorapb.NewGRPCServer()
		lorapb.RegisterBridgeServer(grpcTransport, bridgeSrv)
	}

	if args.logPath != "" {
		sl, err := statslog.New(args.logPath)
		if err != nil {
			simlog.Errorf("statslog open failed: %+v", err)
		} else {
			targets = append(targets, sl)
		}
	}

	if len(targets) == 0 {
		return bridge.NopVisualizer{}, inboundCommands, grpcTransport
	}
	return bridge.NewMultiVisualizer(targets...), inboundCommands, grpcTransport
}

// relayCommands translates the opaque bridge.Command vocabulary (spec
// §6) into direct calls against the loop, node tasks, and visualizer:
// the one place the push-only UI command channel meets the rest of the
// running simulation. tasks may be nil when a command source (e.g. a
// gRPC client before any nodes are registered) has no need of
// RequestNodeInfo.
func relayCommands(commands <-chan bridge.Command, loop *medium.Loop, tasks map[scene.NodeID]*node.Task, vis bridge.Visualizer) {
	for bc := range commands {
		switch {
		case bc.SetSpeedPercent != nil:
			loop.SetSpeed(*bc.SetSpeedPercent)

		case bc.StartMeasurement != nil:
			loop.Commands() <- medium.Command{StartMeasurement: bc.StartMeasurement}

		case bc.ResetMeasurement:
			loop.Commands() <- medium.Command{ResetMeasurement: true}

		case bc.SetAutoSpeed != nil:
			loop.Commands() <- medium.Command{SetAutoSpeed: bc.SetAutoSpeed}

		case bc.RequestNodeInfo != nil:
			if t, ok := tasks[*bc.RequestNodeInfo]; ok {
				vis.NodeInfo(*bc.RequestNodeInfo, t.History.Snapshot())
			}

		case bc.StartMode != nil, bc.SendControlCommand != nil:
			// Scene (re)loading and opaque external-collaborator commands
			// are out of scope for the core per spec §1; nothing to relay.
		}
	}
}

func handleSignals(ctx *progctx.ProgCtx) {
	c := make(chan os.Signal, 1)
	signal.Notify(c, syscall.SIGTERM, syscall.SIGQUIT, syscall.SIGINT, syscall.SIGHUP)
	signal.Ignore(syscall.SIGALRM)

	ctx.WaitAdd("handleSignals", 1)
	go func() {
		defer ctx.WaitDone("handleSignals")
		for {
			select {
			case sig := <-c:
				simlog.Infof("signal received: %v", sig)
				ctx.Cancel(nil)
				return
			case <-ctx.Done():
				return
			}
		}
	}()
}
