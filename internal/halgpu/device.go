package halgpu

import (
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/rendercore"
	"github.com/gogpu/wgpu/hal"
	"github.com/gogpu/wgpu/hal/noop"
)

// Device errors.
var (
	// ErrBackendUnavailable is returned when the HAL has no driver for the API.
	ErrBackendUnavailable = errors.New("halgpu: native backend not available")

	// ErrNoAdapter is returned when the instance exposes no adapters.
	ErrNoAdapter = errors.New("halgpu: no GPU adapters found")

	// ErrProvider is returned when a device provider does not expose HAL objects.
	ErrProvider = errors.New("halgpu: provider does not expose HAL device and queue")
)

// Device is an open HAL device and its queue.
type Device struct {
	device   hal.Device
	queue    hal.Queue
	instance hal.Instance
	external bool

	backend     rendercore.BackendType
	adapterName string
	discrete    bool

	maxTexture2D uint32
	maxBuffer    uint64

	closed atomic.Bool
}

// Open creates an instance for api, picks an adapter and opens a device.
// Discrete and integrated GPUs are preferred over software adapters.
func Open(api gputypes.Backend, backend rendercore.BackendType) (*Device, error) {
	halBackend, ok := hal.GetBackend(api)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrBackendUnavailable, backend)
	}
	instance, err := halBackend.CreateInstance(&hal.InstanceDescriptor{Flags: 0})
	if err != nil {
		return nil, fmt.Errorf("create instance: %w", err)
	}
	d, err := openFromInstance(instance, backend)
	if err != nil {
		instance.Destroy()
		return nil, err
	}
	return d, nil
}

func openFromInstance(instance hal.Instance, backend rendercore.BackendType) (*Device, error) {
	adapters := instance.EnumerateAdapters(nil)
	if len(adapters) == 0 {
		return nil, ErrNoAdapter
	}

	var selected *hal.ExposedAdapter
	for i := range adapters {
		if adapters[i].Info.DeviceType == gputypes.DeviceTypeDiscreteGPU ||
			adapters[i].Info.DeviceType == gputypes.DeviceTypeIntegratedGPU {
			selected = &adapters[i]
			break
		}
	}
	if selected == nil {
		selected = &adapters[0]
	}

	openDev, err := selected.Adapter.Open(gputypes.Features(0), gputypes.DefaultLimits())
	if err != nil {
		return nil, fmt.Errorf("open device: %w", err)
	}
	d := newDevice(openDev.Device, openDev.Queue, backend)
	d.instance = instance
	d.adapterName = selected.Info.Name
	d.discrete = selected.Info.DeviceType == gputypes.DeviceTypeDiscreteGPU
	rendercore.Logger().Info("halgpu: adapter selected", "backend", backend, "adapter", d.adapterName)
	return d, nil
}

// OpenInstance opens a device from an instance the caller created. The
// device takes ownership of the instance.
func OpenInstance(instance hal.Instance, backend rendercore.BackendType) (*Device, error) {
	return openFromInstance(instance, backend)
}

// OpenHeadless opens the no-op software device. It accepts every call and
// renders nothing, which suits dry runs and tests of the submission path.
func OpenHeadless(backend rendercore.BackendType) (*Device, error) {
	instance, err := noop.API{}.CreateInstance(nil)
	if err != nil {
		return nil, fmt.Errorf("create headless instance: %w", err)
	}
	d, err := openFromInstance(instance, backend)
	if err != nil {
		instance.Destroy()
		return nil, err
	}
	return d, nil
}

// Wrap adopts a device and queue owned by someone else. Close does not
// destroy them.
func Wrap(device hal.Device, queue hal.Queue, backend rendercore.BackendType) *Device {
	d := newDevice(device, queue, backend)
	d.external = true
	d.adapterName = "external"
	return d
}

// FromProvider adopts the HAL device of a gpucontext provider. The provider
// must implement HalDevice() any and HalQueue() any.
func FromProvider(p gpucontext.DeviceProvider, backend rendercore.BackendType) (*Device, error) {
	type halProvider interface {
		HalDevice() any
		HalQueue() any
	}
	hp, ok := p.(halProvider)
	if !ok {
		return nil, ErrProvider
	}
	device, ok := hp.HalDevice().(hal.Device)
	if !ok || device == nil {
		return nil, fmt.Errorf("%w: HalDevice is not hal.Device", ErrProvider)
	}
	queue, ok := hp.HalQueue().(hal.Queue)
	if !ok || queue == nil {
		return nil, fmt.Errorf("%w: HalQueue is not hal.Queue", ErrProvider)
	}
	return Wrap(device, queue, backend), nil
}

func newDevice(device hal.Device, queue hal.Queue, backend rendercore.BackendType) *Device {
	lim := gputypes.DefaultLimits()
	return &Device{
		device:       device,
		queue:        queue,
		backend:      backend,
		maxTexture2D: uint32(lim.MaxTextureDimension2D),
		maxBuffer:    uint64(lim.MaxBufferSize),
	}
}

// HAL returns the native device and queue.
func (d *Device) HAL() (hal.Device, hal.Queue) { return d.device, d.queue }

// Backend returns the rendercore backend the device serves.
func (d *Device) Backend() rendercore.BackendType { return d.backend }

// AdapterName returns the adapter's reported name.
func (d *Device) AdapterName() string { return d.adapterName }

// External reports whether the device is owned by the host application.
func (d *Device) External() bool { return d.external }

// Closed reports whether Close has run.
func (d *Device) Closed() bool { return d.closed.Load() }

// Close destroys the device and instance unless they are external.
// Native objects released after Close are dropped without a native call.
func (d *Device) Close() {
	if d.closed.Swap(true) {
		return
	}
	if d.external {
		return
	}
	if d.device != nil {
		d.device.Destroy()
	}
	if d.instance != nil {
		d.instance.Destroy()
	}
}
