package xputil

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLevel(t *testing.T) {
	tests := []struct {
		name string
		xp   int
		want int
	}{
		{"正常系: XP0はレベル1", 0, 1},
		{"正常系: XP99はレベル1", 99, 1},
		{"正常系: XP100でレベル2", 100, 2},
		{"正常系: XP199はレベル2", 199, 2},
		{"正常系: XP250はレベル3", 250, 3},
		{"正常系: XP1900でレベル20", 1900, 20},
		{"境界系: 負のXPはレベル1", -50, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Level(tt.xp))
		})
	}
}

func TestIntoLevel(t *testing.T) {
	tests := []struct {
		name string
		xp   int
		want int
	}{
		{"正常系: XP0は残り0", 0, 0},
		{"正常系: XP150はレベル内50", 150, 50},
		{"正常系: レベル境界ちょうどは0", 200, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IntoLevel(tt.xp))
		})
	}
}

func TestPercentToNext(t *testing.T) {
	assert.InDelta(t, 0.5, PercentToNext(150), 0.0001)
	assert.InDelta(t, 0.0, PercentToNext(0), 0.0001)
}

func TestAdd(t *testing.T) {
	tests := []struct {
		name      string
		current   int
		earned    int
		wantXP    int
		wantLevel int
	}{
		{"正常系: 加算でレベルアップ", 95, 10, 105, 2},
		{"正常系: 加算してもレベル維持", 10, 10, 20, 1},
		{"境界系: 負の獲得XPは0として扱う", 50, -10, 50, 1},
		{"境界系: 負の現在XPは0として扱う", -10, 10, 10, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			xp, level := Add(tt.current, tt.earned)
			assert.Equal(t, tt.wantXP, xp)
			assert.Equal(t, tt.wantLevel, level)
		})
	}
}
