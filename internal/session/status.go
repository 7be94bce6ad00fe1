package session

import (
	"errors"
	"fmt"

	"github.com/aakash670/smart-attendance/internal/camera"
	"github.com/aakash670/smart-attendance/internal/roster"
)

// Status messages shown to the operator.
const (
	StatusIdle            = "Idle."
	StatusLoadingModels   = "Loading AI models..."
	StatusModelsLoaded    = "AI Models loaded successfully."
	StatusReady           = "Ready to start camera."
	StatusStartingCamera  = "Starting camera..."
	StatusCameraStopped   = "Camera stopped."
	StatusNoRecognized    = "No recognized students found in this frame."
	StatusFrameFailed     = "Could not process the frame. Please try again."
	StatusModelLoadFailed = "Error: Could not load AI models. Please check your internet connection and refresh."
	StatusNoEnrolled      = "Error: No students have enrolled faces in this class."
	StatusRosterFailed    = "Error: Could not load the class roster."
	StatusCameraDenied    = "Error: Camera access was denied. Please allow camera access in your browser settings."
	StatusCameraMissing   = "Error: No camera found on this device."
	StatusCameraFailed    = "Error: Could not access the camera."
	statusKioskCameraOn   = "Camera active. Ready to scan."
	statusLiveCameraOn    = "Ready to capture."
	statusKioskScanning   = "Scanning frame..."
	statusLiveScanning    = "Processing..."
	statusKioskNoFace     = "No faces detected in this frame."
	statusLiveNoFace      = "No face detected in capture. Please try again."
)

func cameraOnStatus(mode roster.Mode) string {
	if mode == roster.ModeLive {
		return statusLiveCameraOn
	}
	return statusKioskCameraOn
}

func scanningStatus(mode roster.Mode) string {
	if mode == roster.ModeLive {
		return statusLiveScanning
	}
	return statusKioskScanning
}

func noFaceStatus(mode roster.Mode) string {
	if mode == roster.ModeLive {
		return statusLiveNoFace
	}
	return statusKioskNoFace
}

func cameraErrorStatus(err error) string {
	switch {
	case errors.Is(err, camera.ErrPermissionDenied):
		return StatusCameraDenied
	case errors.Is(err, camera.ErrNoDevice):
		return StatusCameraMissing
	default:
		return StatusCameraFailed
	}
}

func recognizedStatus(name string) string {
	return "Recognized: " + name
}

func alreadyPresentStatus(name string) string {
	return name + " is already marked present."
}

func writeFailedStatus(name string) string {
	return fmt.Sprintf("Error: Could not save attendance for %s.", name)
}
