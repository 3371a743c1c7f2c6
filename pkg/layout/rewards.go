package layout

import (
	"fmt"

	"github.com/dm3k/dm3k/pkg/document"
	"github.com/dm3k/dm3k/pkg/model"
)

type instanceKey struct {
	class, instance string
}

// rewardTree resolves inherited activity rewards.
type rewardTree struct {
	own     map[instanceKey]float64
	names   map[string][]string
	parents map[string][]document.ContainsInstances
}

func newRewardTree(d document.Document) *rewardTree {
	t := &rewardTree{
		own:     make(map[instanceKey]float64),
		names:   make(map[string][]string),
		parents: make(map[string][]document.ContainsInstances),
	}
	for _, ai := range d.ActivityInstances {
		for _, row := range ai.InstanceTable {
			t.own[instanceKey{ai.ClassName, row.InstanceName}] = row.Reward
			t.names[ai.ClassName] = append(t.names[ai.ClassName], row.InstanceName)
		}
	}
	for _, ci := range d.ContainsInstances {
		if ci.ParentType == string(model.KindActivity) {
			t.parents[ci.ChildClassName] = append(t.parents[ci.ChildClassName], ci)
		}
	}
	return t
}

// aggregate returns the instance's own reward plus the rewards of every
// container instance above it.
func (t *rewardTree) aggregate(class, instance string) (float64, error) {
	own := t.own[instanceKey{class, instance}]
	inherited, err := t.inherited(class, instance, make(map[instanceKey]bool))
	if err != nil {
		return 0, err
	}
	return own + inherited, nil
}

// inherited walks up the contains rows that name instance as child. A
// parent reference of ALL stands for every instance of the parent class.
func (t *rewardTree) inherited(class, instance string, onPath map[instanceKey]bool) (float64, error) {
	key := instanceKey{class, instance}
	if onPath[key] {
		return 0, fmt.Errorf("%w: %s instance %q contains itself", ErrCyclicContainment, class, instance)
	}
	onPath[key] = true
	defer delete(onPath, key)

	var sum float64
	for _, link := range t.parents[class] {
		for _, row := range link.InstanceTable {
			if row.ChildInstanceName.IsAll() || row.ChildInstanceName.Name() != instance {
				continue
			}
			parents := []string{row.ParentInstanceName.Name()}
			if row.ParentInstanceName.IsAll() {
				parents = t.names[link.ParentClassName]
			}
			for _, p := range parents {
				r, ok := t.own[instanceKey{link.ParentClassName, p}]
				if !ok {
					return 0, fmt.Errorf("unknown container instance %q of %q", p, link.ParentClassName)
				}
				up, err := t.inherited(link.ParentClassName, p, onPath)
				if err != nil {
					return 0, err
				}
				sum += r + up
			}
		}
	}
	return sum, nil
}
