// Command bootsim drives the boot protocol on the host: one goroutine per
// simulated CPU runs the entry routine against an in-memory architecture
// backend, and the hypervisor console streams to the controlling terminal.
// Failures can be injected per CPU or into the unit pass to watch the
// rollback path.
package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"runtime"
	stdsync "sync"

	tty "github.com/mattn/go-tty"

	"hypercore/boot"
	"hypercore/cell"
	"hypercore/config"
	"hypercore/kernel"
	"hypercore/kernel/mm"
	"hypercore/kernel/mm/paging"
	"hypercore/unit"
)

var (
	numCPUs   = flag.Uint("cpus", 4, "number of simulated CPUs")
	failCPU   = flag.Int("fail-cpu", -1, "inject a per-CPU setup failure on this CPU")
	failUnit  = flag.Bool("fail-unit", false, "inject a unit initialization failure")
	poolPages = flag.Int("pool", 256, "page-table pool capacity in pages")
)

const hvPhysBase = mm.PhysAddr(0x100000)

// hostArch satisfies the architecture backend on the host. Activation parks
// the simulated CPU by ending its goroutine.
type hostArch struct {
	mu      stdsync.Mutex
	failCPU int

	activated []uint32
	restored  map[uint32]int
}

func (a *hostArch) InitEarly() *kernel.Error { return nil }

func (a *hostArch) CPUInit(cpu *boot.PerCPU) *kernel.Error {
	if a.failCPU >= 0 && cpu.Public.CPUID == uint32(a.failCPU) {
		return &kernel.Error{Module: "hostarch", Message: "injected CPU failure", Code: kernel.CodeIO}
	}
	return nil
}

func (a *hostArch) MapMemoryRegion(c *cell.Cell, region mm.MemRegion) *kernel.Error {
	flags := paging.EntryPresent
	if region.Flags&mm.RegionWrite != 0 {
		flags |= paging.EntryWrite
	}
	if region.Flags&mm.RegionExecute != 0 {
		flags |= paging.EntryExecute
	}

	return paging.Create(&c.PgStructs, region.PhysStart, region.Size, region.VirtStart,
		flags, paging.NonCoherent)
}

func (a *hostArch) CPUActivateVMM(cpu *boot.PerCPU) {
	a.mu.Lock()
	a.activated = append(a.activated, cpu.Public.CPUID)
	a.mu.Unlock()

	runtime.Goexit()
}

func (a *hostArch) CPURestore(cpuID uint32, code int) {
	a.mu.Lock()
	a.restored[cpuID] = code
	a.mu.Unlock()
}

func (a *hostArch) Shutdown() {}

type failingUnit struct{}

func (failingUnit) UnitName() string { return "injected" }

func (failingUnit) Init(w io.Writer) *kernel.Error {
	return &kernel.Error{Module: "injected", Message: "injected unit failure", Code: kernel.CodeNoMemory}
}

// crlfWriter rewrites bare newlines for a terminal in raw mode.
type crlfWriter struct {
	w io.Writer
}

func (c crlfWriter) Write(p []byte) (int, error) {
	for _, b := range p {
		if b == '\n' {
			if _, err := c.w.Write([]byte{'\r', '\n'}); err != nil {
				return 0, err
			}
			continue
		}
		if _, err := c.w.Write([]byte{b}); err != nil {
			return 0, err
		}
	}
	return len(p), nil
}

func simulate(console io.Writer) error {
	cpus := uint32(*numCPUs)

	header := &config.Header{
		Signature:         config.Signature,
		CoreSize:          2 * mm.PageSize,
		PerCPUSize:        mm.PageSize,
		ConsolePageOffset: mm.PageSize,
		MaxCPUs:           cpus,
		OnlineCPUs:        cpus,
	}

	var cpuSet config.CPUSet
	for id := uint32(0); id < cpus; id++ {
		cpuSet.Set(id)
	}

	sysConfig := &config.SystemConfig{
		HypervisorMemory: mm.MemRegion{
			PhysStart: hvPhysBase,
			VirtStart: mm.VirtAddr(hvPhysBase),
			Size:      header.CoreSize + uint64(cpus)*header.PerCPUSize,
			Flags:     mm.RegionRead | mm.RegionWrite | mm.RegionExecute,
		},
		RootCell: config.CellConfig{Name: "root", CPUSet: cpuSet},
	}

	arch := &hostArch{failCPU: *failCPU, restored: make(map[uint32]int)}

	unit.Reset()
	if *failUnit {
		unit.Register(failingUnit{})
	}

	state, err := boot.NewState(header, boot.Options{
		Arch: arch,
		Locate: func(offset uint64) (*config.SystemConfig, *kernel.Error) {
			return sysConfig, nil
		},
		ConsoleSink: console,
		PoolPages:   *poolPages,
	})
	if err != nil {
		return fmt.Errorf("state setup failed: %s", err.Message)
	}

	var wg stdsync.WaitGroup
	for id := uint32(0); id < cpus; id++ {
		wg.Add(1)
		go func(id uint32) {
			defer wg.Done()
			state.Entry(id, state.PerCPU(id))
		}(id)
	}
	wg.Wait()

	arch.mu.Lock()
	activated := len(arch.activated)
	arch.mu.Unlock()

	if code := state.ErrorCode(); code != 0 {
		fmt.Fprintf(console, "boot failed with code %d; %d CPUs restored\n", code, len(arch.restored))
		return nil
	}

	fmt.Fprintf(console, "boot complete: master CPU %d, %d/%d CPUs activated\n",
		state.MasterCPUID(), activated, cpus)
	return nil
}

func main() {
	flag.Parse()

	if *numCPUs == 0 || *numCPUs > 64 {
		log.Fatal("cpus must be between 1 and 64")
	}
	if *failCPU >= int(*numCPUs) {
		log.Fatal("fail-cpu lies outside the simulated CPU range")
	}

	t, err := tty.Open()
	if err != nil {
		log.Fatalf("%v", err)
	}
	defer t.Close()
	_ = t.MustRaw()

	console := crlfWriter{w: t.Output()}

	fmt.Fprintf(console, "bootsim: %d CPUs (r to rerun, q to quit)\n", *numCPUs)

	if err := simulate(console); err != nil {
		fmt.Fprintf(console, "%v\n", err)
		os.Exit(1)
	}

	for {
		r, err := t.ReadRune()
		if err != nil {
			log.Fatalf("%v", err)
		}
		switch r {
		case 'r':
			if err := simulate(console); err != nil {
				fmt.Fprintf(console, "%v\n", err)
			}
		case 'q':
			return
		}
	}
}
