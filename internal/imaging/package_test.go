package imaging

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestChartObject_DateAxisLeavesCategoryAxesUntouched(t *testing.T) {
	var cs xlsxChartSpace
	cs.Chart.PlotArea.CatAx = make([]xlsxAxis, 0, 1)
	cs.Chart.PlotArea.DateAx = []xlsxAxis{{TickLblSkip: &xlsxValAttr{Val: "5"}}}

	obj := chartObject(&cs)

	assert.Equal(t, 5, obj.TickLabelSkip)
	spare := cs.Chart.PlotArea.CatAx[:1]
	assert.Nil(t, spare[0].TickLblSkip, "category axis backing array must not be written")
}
