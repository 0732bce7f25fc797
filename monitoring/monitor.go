// Package monitoring turns a running box into a small web server for
// observing puzzle state and issuing administrative commands.
package monitoring

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"runtime/pprof"
	"strconv"
	"time"

	// Enable profiling
	_ "net/http/pprof"

	"github.com/google/pprof/profile"
	"github.com/gorilla/mux"
	"github.com/shirou/gopsutil/process"
	"github.com/syifan/goseth"

	"github.com/sintlab/lockbox/box"
	"github.com/sintlab/lockbox/monitoring/web"
	"github.com/sintlab/lockbox/puzzle"
)

// Monitor serves the state of a coordinator and its runner over HTTP and
// forwards administrative commands to them.
type Monitor struct {
	coordinator *box.Coordinator
	runner      *box.Runner
	portNumber  int
}

// NewMonitor creates a new Monitor.
func NewMonitor() *Monitor {
	return &Monitor{}
}

// WithPortNumber sets the port number of the monitor.
func (m *Monitor) WithPortNumber(portNumber int) *Monitor {
	if portNumber < 1000 {
		fmt.Fprintf(os.Stderr,
			"Port number %d is assigned to the monitoring server, "+
				"which is not allowed. Using a random port instead.\n", portNumber)
		portNumber = 0
	}

	m.portNumber = portNumber

	return m
}

// RegisterCoordinator registers the coordinator that owns the box.
func (m *Monitor) RegisterCoordinator(c *box.Coordinator) {
	m.coordinator = c
}

// RegisterRunner registers the runner that drives the tick loop.
func (m *Monitor) RegisterRunner(r *box.Runner) {
	m.runner = r
}

// StartServer starts the monitor as a web server, on the configured port or
// a random free one. It returns the port actually bound.
func (m *Monitor) StartServer() int {
	r := mux.NewRouter()

	fs := web.GetAssets()
	fServer := http.FileServer(fs)
	r.HandleFunc("/api/pause", m.pauseRunner)
	r.HandleFunc("/api/continue", m.continueRunner)
	r.HandleFunc("/api/now", m.now)
	r.HandleFunc("/api/status", m.status)
	r.HandleFunc("/api/list_puzzles", m.listPuzzles)
	r.HandleFunc("/api/puzzle/{name}", m.listPuzzleDetails)
	r.HandleFunc("/api/reset", m.resetAll)
	r.HandleFunc("/api/lock", m.forceLock)
	r.HandleFunc("/api/unlock", m.forceUnlock)
	r.HandleFunc("/api/selftest", m.startSelfTest)
	r.HandleFunc("/api/resource", m.listResources)
	r.HandleFunc("/api/profile", m.collectProfile)
	r.PathPrefix("/").Handler(fServer)
	http.Handle("/", r)

	actualPort := ":0"
	if m.portNumber > 1000 {
		actualPort = ":" + strconv.Itoa(m.portNumber)
	}

	listener, err := net.Listen("tcp", actualPort)
	dieOnErr(err)

	port := listener.Addr().(*net.TCPAddr).Port

	fmt.Fprintf(
		os.Stderr,
		"Monitoring box with http://localhost:%d\n",
		port)

	go func() {
		err = http.Serve(listener, nil)
		dieOnErr(err)
	}()

	return port
}

func (m *Monitor) pauseRunner(w http.ResponseWriter, _ *http.Request) {
	m.runner.Pause()
	_, err := w.Write(nil)
	dieOnErr(err)
}

func (m *Monitor) continueRunner(w http.ResponseWriter, _ *http.Request) {
	m.runner.Continue()
	_, err := w.Write(nil)
	dieOnErr(err)
}

func (m *Monitor) now(w http.ResponseWriter, _ *http.Request) {
	fmt.Fprintf(w, "{\"ticks\":%d,\"paused\":%t}",
		m.runner.Ticks(), m.runner.Paused())
}

type puzzleStatusRsp struct {
	Name   string `json:"name"`
	Solved bool   `json:"solved"`
}

type statusRsp struct {
	Unlocked  bool              `json:"unlocked"`
	AllSolved bool              `json:"all_solved"`
	SelfTest  bool              `json:"self_test"`
	Paused    bool              `json:"paused"`
	Ticks     uint64            `json:"ticks"`
	Puzzles   []puzzleStatusRsp `json:"puzzles"`
}

func (m *Monitor) status(w http.ResponseWriter, _ *http.Request) {
	puzzles := m.coordinator.Puzzles()

	rsp := statusRsp{
		Unlocked:  m.coordinator.Unlocked(),
		AllSolved: m.coordinator.AllSolved(),
		SelfTest:  m.coordinator.SelfTestRunning(),
		Paused:    m.runner.Paused(),
		Ticks:     m.runner.Ticks(),
		Puzzles:   make([]puzzleStatusRsp, 0, len(puzzles)),
	}

	for _, p := range puzzles {
		rsp.Puzzles = append(rsp.Puzzles, puzzleStatusRsp{
			Name:   p.Name(),
			Solved: p.IsSolved(),
		})
	}

	bytes, err := json.Marshal(rsp)
	dieOnErr(err)

	_, err = w.Write(bytes)
	dieOnErr(err)
}

func (m *Monitor) listPuzzles(w http.ResponseWriter, _ *http.Request) {
	fmt.Fprint(w, "[")
	for i, p := range m.coordinator.Puzzles() {
		if i > 0 {
			fmt.Fprint(w, ",")
		}

		fmt.Fprintf(w, "\"%s\"", p.Name())
	}
	fmt.Fprint(w, "]")
}

func (m *Monitor) listPuzzleDetails(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]

	p := m.findPuzzleOr404(w, name)
	if p == nil {
		return
	}

	serializer := goseth.NewSerializer()
	serializer.SetRoot(p)
	serializer.SetMaxDepth(1)
	err := serializer.Serialize(w)

	dieOnErr(err)
}

func (m *Monitor) resetAll(w http.ResponseWriter, _ *http.Request) {
	m.coordinator.ResetAll()
	_, err := w.Write(nil)
	dieOnErr(err)
}

func (m *Monitor) forceLock(w http.ResponseWriter, _ *http.Request) {
	m.coordinator.ForceLock()
	_, err := w.Write(nil)
	dieOnErr(err)
}

func (m *Monitor) forceUnlock(w http.ResponseWriter, _ *http.Request) {
	m.coordinator.ForceUnlock()
	_, err := w.Write(nil)
	dieOnErr(err)
}

func (m *Monitor) startSelfTest(w http.ResponseWriter, _ *http.Request) {
	m.coordinator.StartSelfTest()
	_, err := w.Write(nil)
	dieOnErr(err)
}

func (m *Monitor) findPuzzleOr404(
	w http.ResponseWriter,
	name string,
) puzzle.Puzzle {
	var found puzzle.Puzzle
	for _, p := range m.coordinator.Puzzles() {
		if p.Name() == name {
			found = p
		}
	}

	if found == nil {
		w.WriteHeader(http.StatusNotFound)
		_, err := w.Write([]byte("Puzzle not found"))
		dieOnErr(err)
	}

	return found
}

type resourceRsp struct {
	CPUPercent float64 `json:"cpu_percent"`
	MemorySize uint64  `json:"memory_size"`
}

func (m *Monitor) listResources(w http.ResponseWriter, _ *http.Request) {
	pid := os.Getpid()
	process, err := process.NewProcess(int32(pid))
	dieOnErr(err)

	cpuPercent, err := process.CPUPercent()
	dieOnErr(err)

	memorySize, err := process.MemoryInfo()
	dieOnErr(err)

	rsp := resourceRsp{
		CPUPercent: cpuPercent,
		MemorySize: memorySize.RSS,
	}

	bytes, err := json.Marshal(rsp)
	dieOnErr(err)

	_, err = w.Write(bytes)
	dieOnErr(err)
}

func (m *Monitor) collectProfile(w http.ResponseWriter, _ *http.Request) {
	buf := bytes.NewBuffer(nil)

	err := pprof.StartCPUProfile(buf)
	dieOnErr(err)

	time.Sleep(time.Second)

	pprof.StopCPUProfile()

	prof, err := profile.ParseData(buf.Bytes())
	dieOnErr(err)

	bytes, err := json.Marshal(prof)
	dieOnErr(err)

	_, err = w.Write(bytes)
	dieOnErr(err)
}

func dieOnErr(err error) {
	if err != nil {
		log.Panic(err)
	}
}
