package services

import (
	"errors"
	"log"
	"os"
	"os/exec"
	"strings"
	"sync"
	"syscall"
	"time"
)

// AgentRuntimeService spawns and supervises the external agent runtime as a
// child process. The session store URI is handed to the runtime untouched;
// this process owns no session state.
type AgentRuntimeService struct {
	cmdLine string
	port    string
	dbURL   string

	cmd  *exec.Cmd
	done chan struct{}
	mu   sync.Mutex
}

// NewAgentRuntimeService creates a supervisor for the agent runtime process
func NewAgentRuntimeService(cmdLine, port, dbURL string) *AgentRuntimeService {
	return &AgentRuntimeService{
		cmdLine: cmdLine,
		port:    port,
		dbURL:   dbURL,
	}
}

// Start launches the agent runtime. The child inherits this process's
// environment and streams its output to ours.
func (s *AgentRuntimeService) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cmd != nil {
		return errors.New("agent runtime already started")
	}

	// Fields also catches a whitespace-only command line
	fields := strings.Fields(s.cmdLine)
	if len(fields) == 0 {
		return errors.New("agent runtime command not configured")
	}
	args := append(fields[1:], "--port", s.port)
	if s.dbURL != "" {
		args = append(args, "--session_service_uri", s.dbURL)
	}

	cmd := exec.Command(fields[0], args...)
	cmd.Env = os.Environ()
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	if err := cmd.Start(); err != nil {
		return err
	}

	s.cmd = cmd
	s.done = make(chan struct{})
	log.Printf("🚀 [AGENT] Started agent runtime (pid %d, port %s)", cmd.Process.Pid, s.port)

	go func() {
		err := cmd.Wait()
		if err != nil {
			log.Printf("⚠️  [AGENT] Agent runtime exited: %v", err)
		} else {
			log.Println("ℹ️  [AGENT] Agent runtime exited cleanly")
		}
		close(s.done)
	}()

	return nil
}

// Stop terminates the agent runtime, escalating from SIGTERM to SIGKILL
// after a grace period.
func (s *AgentRuntimeService) Stop() {
	s.mu.Lock()
	cmd := s.cmd
	done := s.done
	s.mu.Unlock()

	if cmd == nil || cmd.Process == nil {
		return
	}

	log.Println("🛑 [AGENT] Stopping agent runtime...")
	if err := cmd.Process.Signal(syscall.SIGTERM); err != nil {
		log.Printf("⚠️  [AGENT] Failed to signal agent runtime: %v", err)
	}

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		log.Println("⚠️  [AGENT] Agent runtime did not exit, killing")
		_ = cmd.Process.Kill()
		<-done
	}
}
