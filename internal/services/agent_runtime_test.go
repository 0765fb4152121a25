package services

import "testing"

func TestAgentRuntimeStartRejectsBlankCommand(t *testing.T) {
	for _, cmdLine := range []string{"", "   ", "\t \n"} {
		svc := NewAgentRuntimeService(cmdLine, "8001", "")
		if err := svc.Start(); err == nil {
			t.Errorf("Expected error for command line %q, got nil", cmdLine)
		}
	}
}

func TestAgentRuntimeStopWithoutStartIsNoop(t *testing.T) {
	svc := NewAgentRuntimeService("", "8001", "")
	svc.Stop()
}
