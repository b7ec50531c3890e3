//go:build !nogpu

// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package gpu

import (
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
	"github.com/gogpu/wgpu/hal/noop"
	_ "github.com/gogpu/wgpu/hal/vulkan" // register Vulkan backend
)

// Backend names accepted by OpenDevice.
const (
	BackendVulkan = "vulkan"
	BackendNoop   = "noop"
)

// Device is an opened HAL device with its queue and instance.
type Device struct {
	Name     string
	Device   hal.Device
	Queue    hal.Queue
	instance hal.Instance
}

// Close destroys the device and its instance.
func (d *Device) Close() {
	if d.Device != nil {
		d.Device.Destroy()
		d.Device = nil
	}
	if d.instance != nil {
		d.instance.Destroy()
		d.instance = nil
	}
}

// OpenDevice opens the first hardware adapter of the named backend,
// preferring discrete and integrated GPUs.
func OpenDevice(backend string) (*Device, error) {
	var instance hal.Instance
	switch backend {
	case BackendNoop:
		api := noop.API{}
		inst, err := api.CreateInstance(nil)
		if err != nil {
			return nil, fmt.Errorf("create instance: %w", err)
		}
		instance = inst
	case BackendVulkan, "":
		b, ok := hal.GetBackend(gputypes.BackendVulkan)
		if !ok {
			return nil, fmt.Errorf("vulkan backend not available")
		}
		inst, err := b.CreateInstance(&hal.InstanceDescriptor{Flags: 0})
		if err != nil {
			return nil, fmt.Errorf("create instance: %w", err)
		}
		instance = inst
	default:
		return nil, fmt.Errorf("gpu: unknown backend %q", backend)
	}

	adapters := instance.EnumerateAdapters(nil)
	if len(adapters) == 0 {
		instance.Destroy()
		return nil, fmt.Errorf("no GPU adapters found")
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
		instance.Destroy()
		return nil, fmt.Errorf("open device: %w", err)
	}
	slogger().Info("gpu: device opened", "backend", backend, "adapter", selected.Info.Name)
	return &Device{
		Name:     selected.Info.Name,
		Device:   openDev.Device,
		Queue:    openDev.Queue,
		instance: instance,
	}, nil
}
