// Package lazy provides reactive, memoized attributes for object graphs.
//
// # Overview
//
// Lazy organizes state around three kinds of slots declared on a Class:
//
//  1. Variables: mutable values or child objects, written by the caller
//  2. Collections: ordered sets of child objects
//  3. Computed slots: values derived from other slots, cached per object and
//     memoized per class
//
// Every object, every slot of an object and every held value is a node of
// two graphs. Dependency edges describe ownership: an object holds its
// slots, a slot holds the value in it. Parameter edges describe derivation:
// a computed slot depends on the cells its inputs were read from. Writing a
// variable expires exactly the computations reachable from it through
// parameter edges, and nothing else.
//
// # Basic Usage
//
// Declare slots on a class, then register it:
//
//	reg := lazy.NewRegistry()
//
//	circle := reg.NewClass("Circle")
//	radius := lazy.DeclareVariable(circle, "radius", func() float64 { return 1 })
//	area := lazy.DeclareComputed1(circle, "area", radius.Param(),
//	    func(ctx *lazy.ComputeCtx, r float64) (float64, error) {
//	        return math.Pi * r * r, nil
//	    },
//	)
//	if err := circle.Register(); err != nil {
//	    return err
//	}
//
// Instantiate and read:
//
//	c := circle.MustNew()
//	a, err := area.Get(c)   // computed
//	a, err = area.Get(c)    // cached
//	radius.Set(c, 2)        // expires area
//	a, err = area.Get(c)    // recomputed
//
// Writing a value equal to the current one still expires every computation
// derived from it.
//
// # Parameters
//
// A computed slot reads its inputs through Params. A Param is a chain of
// slots walked from the owning object:
//
//	radius.Param()                          // a variable of the object
//	lazy.Via(center, x.Param())             // a variable of a child object
//	lazy.Each(shapes, area.Param())         // a slot of every member, as a slice
//	lazy.Members(shapes)                    // the members themselves
//
// Chains are checked when the class registers: every step must name a slot
// the class (or the element class of the previous step) carries, and the
// leaf must be usable as a memo key. Computed slots of one class may not
// read each other in a cycle.
//
// # Memoization and Sharing
//
// Results are memoized per computed slot, keyed by the input values. Two
// objects whose inputs are equal share one result entity; the result goes
// back to its pool only when the last holder expires it.
//
// Shared variables and ShareBy computed slots go further and coalesce equal
// values into one entity:
//
//	name := lazy.DeclareSharedVariable(label, "name",
//	    func() string { return "" },
//	    strings.ToLower,
//	)
//
// # Inheritance
//
// A class may extend another. It inherits every slot and may override one
// by declaring a slot of the same name, kind and type. Computed slots of the
// parent that read an overridden slot read the override on instances of
// the child class.
//
//	big := reg.NewClass("BigCircle", lazy.Extends(circle))
//	lazy.DeclareVariable(big, "radius", func() float64 { return 100 })
//
// # Pools
//
// Objects, collections and value wrappers are taken from free lists and
// returned to them when nothing holds them any more (a restock). Restock
// callbacks run newest first:
//
//	c.OnRestock(func() error {
//	    return device.Free()
//	})
//	c.Release()
//
// Release panics with *UnboundRestockError if something still holds the
// object. Using a restocked object returns ErrRestocked.
//
// # Controllers
//
// A Controller gives direct control over one computed slot of one object:
//
//	ctrl := lazy.Control(c, area)
//	ctrl.IsCached()
//	ctrl.Reload()    // drop the cached result and recompute
//	ctrl.Release()   // drop the cached result and everything derived from it
//
// # Tags
//
// Tags attach metadata to objects:
//
//	owner := lazy.NewTag[string]("owner")
//	owner.Set(c, "scene-1")
//	lazy.Label.Set(c, "unit circle")   // shown in logs and tree drawings
//
// # Extensions
//
// Extensions wrap computes and writes, observe hits, shares, expiries and
// restocks, and receive errors:
//
//	type TimingExtension struct {
//	    lazy.BaseExtension
//	}
//
//	func (e *TimingExtension) Wrap(next func() (any, error), op *lazy.Operation) (any, error) {
//	    start := time.Now()
//	    result, err := next()
//	    log.Printf("%s %s.%s took %v", op.Kind, op.Class, op.Slot, time.Since(start))
//	    return result, err
//	}
//
//	reg := lazy.NewRegistry(lazy.WithExtension(&TimingExtension{
//	    BaseExtension: lazy.NewBaseExtension("timing"),
//	}))
//
// The extensions package provides logging, Prometheus metrics, and a graph
// debugger that prints the dependency tree of the object a failure came
// from.
//
// # Configuration
//
// A Config bounds the free lists, sets the log level and can turn value
// sharing off. It loads from YAML:
//
//	cfg, err := lazy.LoadConfigFile("lazy.yaml")
//	reg := lazy.NewRegistry(lazy.WithConfig(cfg), lazy.WithLogger(cfg.NewLogger(os.Stderr)))
//
// # Thread Safety
//
// A Registry and everything created from it must be used from one
// goroutine at a time.
package lazy
