package monitoring

import (
	"encoding/json"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"time"

	"github.com/gorilla/mux"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sintlab/lockbox/box"
	"github.com/sintlab/lockbox/hw/memio"
	"github.com/sintlab/lockbox/puzzle"
)

type stubPuzzle struct {
	*puzzle.HookableBase

	name   string
	solved bool
}

func newStubPuzzle(name string) *stubPuzzle {
	return &stubPuzzle{
		HookableBase: puzzle.NewHookableBase(),
		name:         name,
	}
}

func (p *stubPuzzle) Name() string       { return p.name }
func (p *stubPuzzle) Begin()             {}
func (p *stubPuzzle) Update(_ time.Time) {}
func (p *stubPuzzle) IsSolved() bool     { return p.solved }
func (p *stubPuzzle) Reset()             { p.solved = false }
func (p *stubPuzzle) StatusLevel() int   { return puzzle.LevelAuto }

var _ = Describe("Monitor", func() {
	var (
		m           *Monitor
		coordinator *box.Coordinator
		runner      *box.Runner
		melody      *stubPuzzle
		tilt        *stubPuzzle
	)

	BeforeEach(func() {
		melody = newStubPuzzle("Melody")
		tilt = newStubPuzzle("Tilt")

		coordinator = box.MakeBuilder().
			WithActuator(memio.NewServo()).
			WithIndicators(memio.NewOutput(), memio.NewOutput()).
			WithLogger(log.New(io.Discard, "", 0)).
			Build("Box")
		coordinator.Attach(melody, tilt)
		coordinator.Begin()

		runner = box.NewRunner(
			coordinator, time.Millisecond, log.New(io.Discard, "", 0))

		m = NewMonitor()
		m.RegisterCoordinator(coordinator)
		m.RegisterRunner(runner)
	})

	It("should report the box status", func() {
		melody.solved = true

		w := httptest.NewRecorder()
		m.status(w, httptest.NewRequest(http.MethodGet, "/api/status", nil))

		var rsp statusRsp
		Expect(json.Unmarshal(w.Body.Bytes(), &rsp)).To(Succeed())

		Expect(rsp.Unlocked).To(BeFalse())
		Expect(rsp.Puzzles).To(HaveLen(2))
		Expect(rsp.Puzzles[0].Name).To(Equal("Melody"))
		Expect(rsp.Puzzles[0].Solved).To(BeTrue())
		Expect(rsp.Puzzles[1].Solved).To(BeFalse())
	})

	It("should list the puzzle names", func() {
		w := httptest.NewRecorder()
		m.listPuzzles(w, httptest.NewRequest(http.MethodGet, "/api/list_puzzles", nil))

		Expect(w.Body.String()).To(Equal(`["Melody","Tilt"]`))
	})

	It("should serialize one puzzle", func() {
		req := httptest.NewRequest(http.MethodGet, "/api/puzzle/Tilt", nil)
		req = mux.SetURLVars(req, map[string]string{"name": "Tilt"})

		w := httptest.NewRecorder()
		m.listPuzzleDetails(w, req)

		Expect(w.Code).To(Equal(http.StatusOK))
		Expect(w.Body.Len()).To(BeNumerically(">", 0))
	})

	It("should 404 on an unknown puzzle", func() {
		req := httptest.NewRequest(http.MethodGet, "/api/puzzle/Nope", nil)
		req = mux.SetURLVars(req, map[string]string{"name": "Nope"})

		w := httptest.NewRecorder()
		m.listPuzzleDetails(w, req)

		Expect(w.Code).To(Equal(http.StatusNotFound))
	})

	It("should force the lock state", func() {
		w := httptest.NewRecorder()
		m.forceUnlock(w, httptest.NewRequest(http.MethodPost, "/api/unlock", nil))

		Expect(coordinator.Unlocked()).To(BeTrue())

		m.forceLock(w, httptest.NewRequest(http.MethodPost, "/api/lock", nil))

		Expect(coordinator.Unlocked()).To(BeFalse())
	})

	It("should reset all puzzles", func() {
		melody.solved = true
		tilt.solved = true

		w := httptest.NewRecorder()
		m.resetAll(w, httptest.NewRequest(http.MethodPost, "/api/reset", nil))

		Expect(melody.solved).To(BeFalse())
		Expect(tilt.solved).To(BeFalse())
	})

	It("should start the self-test", func() {
		w := httptest.NewRecorder()
		m.startSelfTest(w, httptest.NewRequest(http.MethodPost, "/api/selftest", nil))

		Expect(coordinator.SelfTestRunning()).To(BeTrue())
	})

	It("should pause and continue the runner", func() {
		w := httptest.NewRecorder()
		m.pauseRunner(w, httptest.NewRequest(http.MethodPost, "/api/pause", nil))

		Expect(runner.Paused()).To(BeTrue())

		m.continueRunner(w, httptest.NewRequest(http.MethodPost, "/api/continue", nil))

		Expect(runner.Paused()).To(BeFalse())
	})

	It("should report the tick position", func() {
		w := httptest.NewRecorder()
		m.now(w, httptest.NewRequest(http.MethodGet, "/api/now", nil))

		Expect(w.Body.String()).To(Equal(`{"ticks":0,"paused":false}`))
	})
})
