package experience

import (
	"bytes"
	"fmt"

	"facestage/internal/assets"
	"facestage/internal/capture"
	"facestage/internal/config"
	"facestage/internal/controller"
	"facestage/internal/face"
	"facestage/internal/keyframe"
	"facestage/internal/logging"
	"facestage/internal/render"
	"facestage/internal/scene"
	"facestage/internal/services"
)

// Scene node names besides the face.
const (
	NodeWebcam = "webcam"
	NodeGrid   = "grid"
)

const (
	cameraNear = 1
	cameraFar  = 5000
	gridSize   = 2000
	gridDepth  = -500
)

type cameraPose struct {
	fov float64
	z   float64
}

// build runs the init sequence on loaded assets: scene, controllers, then
// the capture source. The clock is created per session.
func (e *Experience) build(bundle *assets.Bundle) error {
	if bundle == nil || bundle.Keyframes == nil || bundle.Audio == nil {
		return services.Wrap(services.ErrAssetLoad, "experience", "build", "incomplete asset bundle", nil)
	}
	doc := bundle.Keyframes
	e.bundle = bundle

	pose, err := initialPose(doc.Camera)
	if err != nil {
		return services.Wrap(services.ErrValidation, "experience", "build", "camera track", err)
	}
	e.initial = pose

	aspect := float64(e.cfg.Render.Width) / float64(e.cfg.Render.Height)
	e.camera = scene.NewPerspectiveCamera(pose.fov, aspect, cameraNear, cameraFar)
	e.resetCamera()

	height := e.camera.FrustumHeightAt(pose.z)
	e.webcam = scene.NewNode(NodeWebcam, scene.Plane{Width: height * aspect, Height: height, Segments: 16})
	e.face = face.New()

	e.scene = scene.New()
	if e.cfg.Debug.DevMode {
		grid := scene.NewNode(NodeGrid, scene.Plane{Width: gridSize, Height: gridSize, Segments: 20})
		grid.Position = scene.Vec3{Z: gridDepth}
		grid.UpdateMatrix()
		e.scene.Add(grid)
	}
	e.scene.Add(e.webcam, e.face.Node())

	if err := e.buildSource(bundle); err != nil {
		return err
	}
	e.source.OnComplete(e.onCaptureComplete)

	if err := e.buildControllers(doc); err != nil {
		return services.Wrap(services.ErrValidation, "experience", "build", "controllers", err)
	}

	if e.share != nil {
		snap, err := render.NewSnapshot(render.SnapshotConfig{Width: e.cfg.Render.Width, Height: e.cfg.Render.Height})
		if err != nil {
			return err
		}
		e.snapshot = snap
	}

	e.logger.Info("scene built",
		logging.String(logging.FieldEventType, "scene_built"),
		logging.Float64("fov", pose.fov),
		logging.Float64("camera_z", pose.z),
		logging.Int("last_frame", doc.LastFrame()),
		logging.Bool("dev_mode", e.cfg.Debug.DevMode),
	)
	return nil
}

func initialPose(track *keyframe.Track) (cameraPose, error) {
	fov, err := track.Scalar(track.InFrame, keyframe.PropFOV)
	if err != nil {
		return cameraPose{}, err
	}
	pos, err := track.Sample(track.InFrame, keyframe.PropPosition)
	if err != nil {
		return cameraPose{}, err
	}
	return cameraPose{fov: fov, z: scene.V3(pos).Z}, nil
}

func (e *Experience) resetCamera() {
	e.camera.FOV = e.initial.fov
	e.camera.UpdateProjection()
	e.camera.Position = scene.Vec3{Z: e.initial.z}
	e.camera.Orientation = scene.IdentityQuat
	e.camera.UpdateMatrix()
}

func (e *Experience) buildSource(bundle *assets.Bundle) error {
	if e.source != nil {
		return nil
	}
	switch e.cfg.Capture.Source {
	case config.CaptureSourceSynthetic:
		e.source = capture.NewSynthetic(e.cfg.Capture.SynthFrames, e.cfg.Capture.SynthLandmarks)
	default:
		if bundle.Recording == nil {
			logging.WarnWithContext(e.logger, "no capture recording; using synthetic capture", "capture_fallback",
				logging.String(logging.FieldErrorHint, "add capture.json to the asset directory"),
				logging.String(logging.FieldImpact, "visitors see a synthetic face"),
			)
			e.source = capture.NewSynthetic(e.cfg.Capture.SynthFrames, e.cfg.Capture.SynthLandmarks)
			return nil
		}
		replay, err := capture.NewReplay(bundle.Recording)
		if err != nil {
			return services.Wrap(services.ErrCapture, "experience", "build", "replay source", err)
		}
		e.source = replay
	}
	return nil
}

// buildControllers registers capture, face morph and camera in update order.
func (e *Experience) buildControllers(doc *keyframe.Document) error {
	var err error
	if e.capture, err = controller.NewCapture(e.source, e.face); err != nil {
		return err
	}
	if e.morph, err = controller.NewFaceMorph(doc.User, doc.Extra, e.face, e.cfg.Face.ScaleMultiplier); err != nil {
		return err
	}
	if e.cam, err = controller.NewCamera(doc.Camera, e.camera); err != nil {
		return err
	}
	e.set = controller.NewSet(e.logger)
	for _, c := range []controller.Controller{e.capture, e.morph, e.cam} {
		if err := e.set.Register(c); err != nil {
			return err
		}
	}
	e.set.OnFailure(e.metrics.ControllerFailure)
	return nil
}

func (e *Experience) captureSnapshot() ([]byte, error) {
	if err := e.snapshot.Render(e.scene, e.camera); err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := e.snapshot.Encode(&buf); err != nil {
		return nil, fmt.Errorf("encode snapshot: %w", err)
	}
	return buf.Bytes(), nil
}
