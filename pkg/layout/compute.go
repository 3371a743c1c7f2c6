package layout

import (
	"cmp"
	"fmt"
	"slices"

	"github.com/dm3k/dm3k/pkg/document"
)

// Compute lays out trace t against document d.
//
// Every resource and activity named in t must resolve to an instance of d;
// otherwise, or when containment is cyclic, an error wrapping [ErrLayout] is
// returned and no geometry is produced.
func Compute(d document.Document, t Trace, opts Options) (*Layout, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLayout, err)
	}
	l, err := compute(d, t, opts)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLayout, err)
	}
	return l, nil
}

func compute(d document.Document, t Trace, opts Options) (*Layout, error) {
	if err := t.Validate(); err != nil {
		return nil, err
	}
	ix := newLabelIndex(d)

	// Label normalization: every trace entry is resolved once up front.
	resTrace := make([]*resourceEntry, len(t.Resource))
	actTrace := make([]*activityEntry, len(t.Activity))
	var err error
	for i := range t.Resource {
		if resTrace[i], err = ix.resource(t.Resource[i]); err != nil {
			return nil, err
		}
		if actTrace[i], err = ix.activity(t.Activity[i]); err != nil {
			return nil, err
		}
	}
	if err := distinctLabels(resTrace, func(e *resourceEntry) Label { return e.info }); err != nil {
		return nil, err
	}
	if err := distinctLabels(actTrace, func(e *activityEntry) Label { return e.info }); err != nil {
		return nil, err
	}

	metrics, err := activityMetrics(d, newRewardTree(d))
	if err != nil {
		return nil, err
	}

	resources, resClasses := buildRows(ix, resTrace)
	activities, actClasses := buildColumns(actTrace, t.Selected, metrics, opts.WidthFunc)

	pad := newPadding(len(resources), len(activities))
	resLinks, actLinks := splitLinks(d)
	width, height := containerSize(opts, pad, len(resLinks), len(actLinks),
		len(activities), len(actClasses), len(resClasses))
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("frame width %v leaves no room for %d rows and %d columns",
			opts.FrameWidth, len(resources), len(activities))
	}

	if err := sizeRows(resources, resClasses, height); err != nil {
		return nil, err
	}
	sizeColumns(activities, actClasses, width)
	placeRows(resources, pad)
	placeColumns(activities, pad)

	resBoxes, err := containerBoxes(resLinks, rowAxis(resources), d)
	if err != nil {
		return nil, err
	}
	actBoxes, err := containerBoxes(actLinks, columnAxis(activities), d)
	if err != nil {
		return nil, err
	}

	return &Layout{
		WidthFunc:          opts.WidthFunc,
		ContainerWidth:     width,
		ContainerHeight:    height,
		Padding:            pad,
		Cells:              buildCells(resources, activities, len(resClasses), t, resTrace, actTrace),
		Resources:          resources,
		Activities:         activities,
		ResourceClasses:    resClasses,
		ActivityClasses:    actClasses,
		ResourceContainers: resBoxes,
		ActivityContainers: actBoxes,
		Labels:             ix.labels(),
	}, nil
}

// =============================================================================
// Activity metrics
// =============================================================================

type metric struct {
	cost, reward, ratio float64
	units               []string
	ranks               Ranks
}

// activityMetrics computes cost, inherited reward, ratio and per-class ranks
// for every activity instance of d, keyed by instance row.
func activityMetrics(d document.Document, rewards *rewardTree) (map[*document.ActivityRow]*metric, error) {
	out := make(map[*document.ActivityRow]*metric)
	for _, ai := range d.ActivityInstances {
		class := make([]*metric, len(ai.InstanceTable))
		for i := range ai.InstanceTable {
			row := &ai.InstanceTable[i]
			cost, units := costOf(row)
			reward, err := rewards.aggregate(ai.ClassName, row.InstanceName)
			if err != nil {
				return nil, err
			}
			m := &metric{cost: cost, reward: reward, ratio: ratioOf(reward, cost), units: units}
			class[i] = m
			out[row] = m
		}
		rank(class, func(m *metric) float64 { return m.cost }, func(m *metric, i int) {
			m.ranks.Cost, m.ranks.FirstByCost = i, i == 0
		})
		rank(class, func(m *metric) float64 { return m.reward }, func(m *metric, i int) {
			m.ranks.Reward, m.ranks.FirstByReward = i, i == 0
		})
		rank(class, func(m *metric) float64 { return m.ratio }, func(m *metric, i int) {
			m.ranks.Ratio, m.ranks.FirstByRatio = i, i == 0
		})
	}
	return out, nil
}

// rank assigns descending positions by key. Ties keep table order.
func rank(ms []*metric, key func(*metric) float64, set func(*metric, int)) {
	sorted := slices.Clone(ms)
	slices.SortStableFunc(sorted, func(a, b *metric) int { return cmp.Compare(key(b), key(a)) })
	for i, m := range sorted {
		set(m, i)
	}
}

// ratioOf is reward per unit cost. A zero reward maps to 0.5 and a zero
// cost counts as one unit.
func ratioOf(reward, cost float64) float64 {
	switch {
	case reward == 0:
		return zeroValue
	case cost == 0:
		return reward
	default:
		return reward / cost
	}
}

func widthValue(wf WidthFunc, m *metric) float64 {
	var v float64
	switch wf {
	case WidthRatio:
		v = m.ratio
	case WidthReward:
		v = m.reward
	default:
		v = m.cost
	}
	if v == 0 {
		v = zeroValue
	}
	return v
}

func rankFor(wf WidthFunc, r Ranks) int {
	switch wf {
	case WidthRatio:
		return r.Ratio
	case WidthReward:
		return r.Reward
	default:
		return r.Cost
	}
}

// =============================================================================
// Rows and columns
// =============================================================================

// groupByClass keeps first-appearance order of classes and of items within
// each class.
func groupByClass[T any](items []T, class func(T) string) [][]T {
	var order []string
	groups := make(map[string][]T)
	for _, it := range items {
		c := class(it)
		if _, ok := groups[c]; !ok {
			order = append(order, c)
		}
		groups[c] = append(groups[c], it)
	}
	out := make([][]T, len(order))
	for i, c := range order {
		out[i] = groups[c]
	}
	return out
}

func uniqueEntries[T any](entries []T, label func(T) string) []T {
	seen := make(map[string]bool)
	var out []T
	for _, e := range entries {
		if l := label(e); !seen[l] {
			seen[l] = true
			out = append(out, e)
		}
	}
	return out
}

func buildRows(ix *labelIndex, trace []*resourceEntry) ([]ResourceInstance, []ResourceClassSummary) {
	unique := uniqueEntries(trace, func(e *resourceEntry) string { return e.info.Label })
	groups := groupByClass(unique, func(e *resourceEntry) string { return e.info.Class })

	var rows []ResourceInstance
	classes := make([]ResourceClassSummary, len(groups))
	for ci, g := range groups {
		classes[ci] = ResourceClassSummary{Class: g[0].info.Class, Instances: len(g)}
		for _, e := range g {
			budget, unit := ix.budgetOf(e)
			if classes[ci].BudgetUnit == "" {
				classes[ci].BudgetUnit = unit
			}
			classes[ci].TotalBudget += budget
			rows = append(rows, ResourceInstance{
				Label:      e.info.Label,
				Name:       e.info.Name,
				Class:      e.info.Class,
				Budget:     budget,
				BudgetUnit: unit,
				ClassIndex: ci,
			})
		}
	}
	return rows, classes
}

func buildColumns(trace []*activityEntry, selected []int, metrics map[*document.ActivityRow]*metric, wf WidthFunc) ([]ActivityInstance, []ActivityClassSummary) {
	picked := make(map[string]int)
	for i, e := range trace {
		picked[e.info.Label] += selected[i]
	}

	unique := uniqueEntries(trace, func(e *activityEntry) string { return e.info.Label })
	groups := groupByClass(unique, func(e *activityEntry) string { return e.info.Class })

	var cols []ActivityInstance
	classes := make([]ActivityClassSummary, len(groups))
	for ci, g := range groups {
		slices.SortStableFunc(g, func(a, b *activityEntry) int {
			return cmp.Compare(rankFor(wf, metrics[a.row].ranks), rankFor(wf, metrics[b.row].ranks))
		})
		classes[ci] = ActivityClassSummary{Class: g[0].info.Class, Instances: len(g)}
		for _, e := range g {
			m := metrics[e.row]
			v := widthValue(wf, m)
			classes[ci].TotalValue += v
			cols = append(cols, ActivityInstance{
				Label:      e.info.Label,
				Name:       e.info.Name,
				Class:      e.info.Class,
				CostUnits:  m.units,
				Cost:       m.cost,
				Reward:     m.reward,
				Ratio:      m.ratio,
				Value:      v,
				ClassIndex: ci,
				Selected:   picked[e.info.Label] > 0,
				Ranks:      m.ranks,
			})
		}
	}
	return cols, classes
}

// =============================================================================
// Sizing and placement
// =============================================================================

func containerSize(o Options, pad Padding, resBoxes, actBoxes, cols, colClasses, rowClasses int) (width, height float64) {
	width = o.ContainerWidth
	if width == 0 {
		width = o.FrameWidth/1.5 -
			float64(resBoxes)*pad.Box - 2*pad.Box -
			float64(cols)*pad.X -
			float64(colClasses)*pad.Class
	}
	height = o.ContainerHeight
	if height == 0 {
		height = width/1.5 -
			float64(actBoxes)*pad.Box*2 -
			float64(rowClasses-1)*pad.Class
	}
	return width, height
}

// sizeRows gives each row a share of height proportional to its budget.
func sizeRows(rows []ResourceInstance, classes []ResourceClassSummary, height float64) error {
	var total float64
	for _, r := range rows {
		total += r.Budget
	}
	if total <= 0 {
		return fmt.Errorf("resource instances in the trace have no budget")
	}
	for i := range rows {
		rows[i].Percentage = rows[i].Budget / total
		rows[i].Height = height * rows[i].Percentage
		c := &classes[rows[i].ClassIndex]
		c.TotalHeight += rows[i].Height
	}
	for i := range classes {
		classes[i].Percentage = classes[i].TotalBudget / total
	}
	return nil
}

// sizeColumns gives each column a share of width proportional to its value.
// Values are never zero, so the total is positive.
func sizeColumns(cols []ActivityInstance, classes []ActivityClassSummary, width float64) {
	var total float64
	for _, c := range cols {
		total += c.Value
	}
	for i := range cols {
		cols[i].Percentage = cols[i].Value / total
		cols[i].Width = width * cols[i].Percentage
		c := &classes[cols[i].ClassIndex]
		c.TotalWidth += cols[i].Width
	}
	for i := range classes {
		classes[i].Percentage = classes[i].TotalValue / total
	}
}

// placeRows stacks rows top to bottom, adding class padding before the
// first row of each class.
func placeRows(rows []ResourceInstance, pad Padding) {
	var y float64
	for i := range rows {
		step := pad.Y
		if i == 0 || rows[i].ClassIndex != rows[i-1].ClassIndex {
			step += pad.Class
		}
		rows[i].Y = y + step
		y += rows[i].Height + step
	}
}

func placeColumns(cols []ActivityInstance, pad Padding) {
	var x float64
	for i := range cols {
		step := pad.X
		if i == 0 || cols[i].ClassIndex != cols[i-1].ClassIndex {
			step += pad.Class
		}
		cols[i].X = x + step
		x += cols[i].Width + step
	}
}

// buildCells expands the trace to every row/column pair in row-major order.
// Pairs absent from the trace use a zero vector with one entry per resource
// class.
func buildCells(rows []ResourceInstance, cols []ActivityInstance, rowClasses int, t Trace, resTrace []*resourceEntry, actTrace []*activityEntry) []Cell {
	type pair struct{ r, a string }
	used := make(map[pair][]float64, len(t.BudgetUsed))
	for i := range t.BudgetUsed {
		p := pair{resTrace[i].info.Label, actTrace[i].info.Label}
		if _, ok := used[p]; !ok {
			used[p] = t.BudgetUsed[i]
		}
	}

	zero := make([]float64, rowClasses)
	cells := make([]Cell, 0, len(rows)*len(cols))
	for i, r := range rows {
		for j, a := range cols {
			vec, ok := used[pair{r.Label, a.Label}]
			if !ok {
				vec = zero
			}
			var spent float64
			if r.ClassIndex < len(vec) {
				spent = vec[r.ClassIndex]
			}
			var opacity float64
			if r.Budget != 0 {
				opacity = spent / r.Budget
			}
			cells = append(cells, Cell{
				Resource:            r.Label,
				Activity:            a.Label,
				ResourceClass:       r.Class,
				ActivityClass:       a.Class,
				BudgetUsed:          spent,
				Row:                 i,
				Col:                 j,
				X:                   a.X,
				Y:                   r.Y,
				W:                   a.Width,
				H:                   r.Height,
				FillOpacity:         opacity,
				TotalResourceBudget: r.Budget,
			})
		}
	}
	return cells
}

func splitLinks(d document.Document) (resources, activities []document.ContainsInstances) {
	for _, ci := range d.ContainsInstances {
		if ci.ParentType == "activity" {
			activities = append(activities, ci)
		} else {
			resources = append(resources, ci)
		}
	}
	return resources, activities
}
