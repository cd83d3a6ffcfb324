package provider

import (
	"github.com/danmuck/edgeprobe/internal/backend"
	"github.com/danmuck/edgeprobe/internal/output"
)

// ServiceInline realizes service operations against the local service
// manager without a backend.
type ServiceInline interface {
	Run(op Operation) (output.Output, error)
}

// ServiceShell realizes service operations through a backend.
type ServiceShell interface {
	Run(b backend.Backend, op Operation) (output.Output, error)
}

// ServiceProvider binds one inline and one shell service strategy. Either
// may be nil when the platform has no implementation.
type ServiceProvider struct {
	Inline ServiceInline
	Shell  ServiceShell
}

func NewServiceProvider(inline ServiceInline, shell ServiceShell) *ServiceProvider {
	return &ServiceProvider{Inline: inline, Shell: shell}
}

func (p *ServiceProvider) IsRunning(name string) Operation { return p.op(ServiceIsRunning, name) }
func (p *ServiceProvider) IsEnabled(name string) Operation { return p.op(ServiceIsEnabled, name) }
func (p *ServiceProvider) Enable(name string) Operation    { return p.op(ServiceEnable, name) }
func (p *ServiceProvider) Disable(name string) Operation   { return p.op(ServiceDisable, name) }

// Op builds an operation by name.
func (p *ServiceProvider) Op(name OpName, service string) Operation {
	return p.op(name, service)
}

func (p *ServiceProvider) op(name OpName, service string) Operation {
	return Operation{Name: name, Target: service, area: serviceArea{p: p}}
}

type serviceArea struct {
	p *ServiceProvider
}

func (a serviceArea) inline(op Operation) (output.Output, error) {
	if a.p.Inline == nil || op.Name.Area() != "service" {
		return output.Output{}, notDefined(op, "inline")
	}
	return a.p.Inline.Run(op)
}

func (a serviceArea) shell(b backend.Backend, op Operation) (output.Output, error) {
	if a.p.Shell == nil || op.Name.Area() != "service" {
		return output.Output{}, notDefined(op, "shell")
	}
	return a.p.Shell.Run(b, op)
}
