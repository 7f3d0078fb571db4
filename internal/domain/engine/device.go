package engine

import (
	"fmt"
	"os/exec"
	"strconv"
	"strings"

	"mediascribe-server-go/internal/platform/logging"
	"mediascribe-server-go/internal/platform/observability"
)

// gpuStatus describes the first GPU visible to nvidia-smi.
type gpuStatus struct {
	available      bool
	name           string
	freeMemoryGB   float64
	fallbackReason string
}

// queryGPU shells out to nvidia-smi. Recognition runs in an external engine
// process, so the host-side check only needs presence and free memory.
func queryGPU(minFreeGB float64) gpuStatus {
	smi, err := exec.LookPath("nvidia-smi")
	if err != nil {
		return gpuStatus{fallbackReason: "nvidia-smi not found"}
	}

	out, err := exec.Command(smi,
		"--query-gpu=name,memory.free",
		"--format=csv,noheader,nounits").Output()
	if err != nil {
		return gpuStatus{fallbackReason: fmt.Sprintf("nvidia-smi failed: %v", err)}
	}

	line := strings.TrimSpace(strings.SplitN(string(out), "\n", 2)[0])
	if line == "" {
		return gpuStatus{fallbackReason: "no GPU devices reported"}
	}
	fields := strings.Split(line, ",")
	status := gpuStatus{name: strings.TrimSpace(fields[0])}
	if len(fields) > 1 {
		if freeMiB, err := strconv.ParseFloat(strings.TrimSpace(fields[1]), 64); err == nil {
			status.freeMemoryGB = freeMiB / 1024
		}
	}
	if status.freeMemoryGB < minFreeGB {
		status.fallbackReason = fmt.Sprintf(
			"insufficient GPU memory: %.2fGB free, %.2fGB required",
			status.freeMemoryGB, minFreeGB)
		return status
	}
	status.available = true
	return status
}

// ResolveDevice turns a device selector (auto / cuda:N / cpu) into a concrete
// device, falling back to cpu with a logged reason whenever the requested GPU
// is unavailable.
func ResolveDevice(selector string, minFreeGB float64, logger *logging.Logger) string {
	switch {
	case selector == "" || selector == "auto":
		status := queryGPU(minFreeGB)
		if status.available {
			logger.InfoTag("ASR", "auto-selected GPU: %s, %.2fGB free", status.name, status.freeMemoryGB)
			return "cuda:0"
		}
		logger.InfoTag("ASR", "GPU unavailable, using CPU (%s)", status.fallbackReason)
		return "cpu"

	case strings.HasPrefix(selector, "cuda"):
		status := queryGPU(minFreeGB)
		if status.available {
			logger.InfoTag("ASR", "requested device %s available: %s", selector, status.name)
			return selector
		}
		logger.WarnTag("ASR", "requested device %s unavailable, falling back to CPU (%s)",
			selector, status.fallbackReason)
		return "cpu"

	case selector == "cpu":
		logger.InfoTag("ASR", "using CPU (host memory free: %.2fGB)", observability.FreeMemoryGB())
		return "cpu"

	default:
		logger.WarnTag("ASR", "unknown device selector %q, falling back to CPU", selector)
		return "cpu"
	}
}
