package cleanup

import (
	"os"
	"os/signal"
	"slices"
	"sync"
	"syscall"

	mapset "github.com/deckarep/golang-set/v2"
	log "github.com/sirupsen/logrus"
)

// Keys run in ascending order on Stop, so the API and scheduler go quiet before the
// engine restores priorities.
const (
	Echo = iota
	Scheduler
	Engine
	Discord
)

type OnStop func(sig os.Signal)

// stop is the registry of functions to run on shutdown
type stop struct {
	isStopping bool           // set once Stop or StopAllExcept ran
	mutex      sync.Mutex     // guards the whole registry
	onStopFunc map[int]OnStop // functions to call when stopping, by key
}

// global instance of stop
var quitInstance = &stop{
	onStopFunc: make(map[int]OnStop),
}

// AddOnStopFunc registers f under key
//   - replaces any function already registered under key
//   - runs f immediately, and forgets it, when a stop is already under way
//
// @param key int - one of the registry keys, which also sets the run order
// @param f OnStop - the function to run on stop
func AddOnStopFunc(key int, f OnStop) {
	quitInstance.mutex.Lock()
	defer quitInstance.mutex.Unlock()
	quitInstance.onStopFunc[key] = f
	if quitInstance.isStopping {
		f(syscall.SIGTERM)
		delete(quitInstance.onStopFunc, key)
	}
}

func sortedKeys() []int {
	keys := make([]int, 0, len(quitInstance.onStopFunc))
	for k := range quitInstance.onStopFunc {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// Stop stops every registered component
//   - sets isStopping to true
//   - calls the functions in ascending key order
//   - deletes each function from the registry once it ran
//
// @param sig os.Signal - the signal that triggered the stop
func Stop(sig os.Signal) {
	quitInstance.mutex.Lock()
	defer quitInstance.mutex.Unlock()
	quitInstance.isStopping = true
	log.Warnf("Received signal %v, terminating...", sig)
	for _, k := range sortedKeys() {
		quitInstance.onStopFunc[k](sig)
		delete(quitInstance.onStopFunc, k)
	}
}

// RunStopFunc runs the functions with the given keys
//   - runs them in the order given, skipping keys not registered
//   - deletes each function from the registry once it ran
//
// @param sig os.Signal - the signal passed to the functions
// @param keys ...int - the keys to run
func RunStopFunc(sig os.Signal, keys ...int) {
	quitInstance.mutex.Lock()
	defer quitInstance.mutex.Unlock()
	for _, key := range keys {
		if f, ok := quitInstance.onStopFunc[key]; ok {
			f(sig)
			delete(quitInstance.onStopFunc, key)
		}
	}
}

// StopAllExcept stops everything but the given keys
//   - sets isStopping to true
//   - calls, in key order, the functions whose key is not in except
//
// @param sig os.Signal - the signal passed to the functions
// @param except ...int - the keys to leave registered
func StopAllExcept(sig os.Signal, except ...int) {
	quitInstance.mutex.Lock()
	defer quitInstance.mutex.Unlock()
	quitInstance.isStopping = true
	log.Warnf("Stopping all except %v", except)
	exceptSet := mapset.NewSet[int](except...)
	for _, k := range sortedKeys() {
		if !exceptSet.Contains(k) {
			quitInstance.onStopFunc[k](sig)
			delete(quitInstance.onStopFunc, k)
		}
	}
}

// InitSignalCallback initializes the signal callback
//   - registers SIGHUP, SIGINT, SIGTERM and SIGQUIT
//   - calls Stop on the first one received
//   - then sends true on done
//
// @param done chan<- bool - released once every stop function ran
func InitSignalCallback(done chan<- bool) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan,
		syscall.SIGHUP,
		syscall.SIGINT,
		syscall.SIGTERM,
		syscall.SIGQUIT)
	go func() {
		sig := <-sigChan
		Stop(sig)
		done <- true
	}()
}

// reset is for tests.
func reset() {
	quitInstance.mutex.Lock()
	defer quitInstance.mutex.Unlock()
	quitInstance.isStopping = false
	quitInstance.onStopFunc = make(map[int]OnStop)
}
