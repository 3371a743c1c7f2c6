package layout

import "github.com/dm3k/dm3k/pkg/model"

// Layout is the computed matrix geometry.
type Layout struct {
	WidthFunc       WidthFunc `json:"widthFunc"`
	ContainerWidth  float64   `json:"containerWidth"`
	ContainerHeight float64   `json:"containerHeight"`
	Padding         Padding   `json:"padding"`

	Cells              []Cell                 `json:"cells"`
	Resources          []ResourceInstance     `json:"resources"`
	Activities         []ActivityInstance     `json:"activities"`
	ResourceClasses    []ResourceClassSummary `json:"resourceClasses"`
	ActivityClasses    []ActivityClassSummary `json:"activityClasses"`
	ResourceContainers []ContainerBox         `json:"resourceContainers"`
	ActivityContainers []ContainerBox         `json:"activityContainers"`
	Labels             []Label                `json:"labels"`
}

// Cell is one resource/activity pair of the matrix. Row and Col index
// [Layout.Resources] and [Layout.Activities].
type Cell struct {
	Resource            string  `json:"resource"`
	Activity            string  `json:"activity"`
	ResourceClass       string  `json:"resourceClass"`
	ActivityClass       string  `json:"activityClass"`
	BudgetUsed          float64 `json:"budgetUsed"`
	Row                 int     `json:"row"`
	Col                 int     `json:"col"`
	X                   float64 `json:"x"`
	Y                   float64 `json:"y"`
	W                   float64 `json:"w"`
	H                   float64 `json:"h"`
	FillOpacity         float64 `json:"fillOpacity"`
	TotalResourceBudget float64 `json:"totalResourceBudget"`
}

// ResourceInstance is one matrix row.
type ResourceInstance struct {
	Label      string  `json:"label"`
	Name       string  `json:"name"`
	Class      string  `json:"class"`
	Budget     float64 `json:"budget"`
	BudgetUnit string  `json:"budgetUnit"`
	// ClassIndex selects the entry of a budget_used vector for this row.
	ClassIndex int     `json:"classIndex"`
	Percentage float64 `json:"percentage"`
	Height     float64 `json:"height"`
	Y          float64 `json:"y"`
}

// ActivityInstance is one matrix column.
type ActivityInstance struct {
	Label     string   `json:"label"`
	Name      string   `json:"name"`
	Class     string   `json:"class"`
	CostUnits []string `json:"costUnits"`

	Cost   float64 `json:"cost"`
	Reward float64 `json:"reward"`
	Ratio  float64 `json:"ratio"`
	// Value is the width driver selected by the width function.
	Value      float64 `json:"value"`
	Percentage float64 `json:"percentage"`
	Width      float64 `json:"width"`
	X          float64 `json:"x"`
	ClassIndex int     `json:"classIndex"`
	Selected   bool    `json:"selected"`

	Ranks Ranks `json:"ranks"`
}

// Ranks are an activity instance's positions within its class when sorted
// by descending cost, reward and ratio.
type Ranks struct {
	Cost          int  `json:"costDescIndex"`
	Reward        int  `json:"rewardDescIndex"`
	Ratio         int  `json:"ratioDescIndex"`
	FirstByCost   bool `json:"firstFlagCost"`
	FirstByReward bool `json:"firstFlagReward"`
	FirstByRatio  bool `json:"firstFlagRatio"`
}

// ResourceClassSummary aggregates the rows of one resource class.
type ResourceClassSummary struct {
	Class       string  `json:"class"`
	Instances   int     `json:"instances"`
	TotalBudget float64 `json:"totalBudget"`
	BudgetUnit  string  `json:"budgetUnit"`
	Percentage  float64 `json:"percentage"`
	TotalHeight float64 `json:"totalHeight"`
}

// ActivityClassSummary aggregates the columns of one activity class.
type ActivityClassSummary struct {
	Class      string  `json:"class"`
	Instances  int     `json:"instances"`
	TotalValue float64 `json:"totalValue"`
	Percentage float64 `json:"percentage"`
	TotalWidth float64 `json:"totalWidth"`
}

// ContainerBox spans the rows or columns held by one contains link.
//
// Extent is a height for resource containers and a width for activity
// containers; Start and Index are the first row or column covered. Depth is
// 1 when the child class has instances in the matrix and grows by one per
// container level in between.
type ContainerBox struct {
	Parent       string     `json:"parent"`
	Child        string     `json:"child"`
	Kind         model.Kind `json:"kind"`
	Depth        int        `json:"depth"`
	Extent       float64    `json:"extent"`
	Start        float64    `json:"start"`
	Index        int        `json:"index"`
	NumContained int        `json:"numContained"`
	NumInstances int        `json:"numInstances"`
}

// Label maps a canonical instance label back to its display name.
type Label struct {
	Label string     `json:"label"`
	Name  string     `json:"name"`
	Class string     `json:"class"`
	Kind  model.Kind `json:"kind"`
}
