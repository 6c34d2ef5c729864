// internal/xputil/xp.go
package xputil

// XPPerLevel は1レベルあたりの必要XP。レベルは派生値であり、
// この式 level = floor(xp/100)+1 以外で計算してはならない。
const XPPerLevel = 100

// Level は累計XPからレベルを導出する。xp >= 0 の全域で定義される純関数で、
// レベル計算の唯一の正とする。各イベント適用側は独自に再計算せず必ずこれを呼ぶ。
func Level(xp int) int {
	if xp < 0 {
		xp = 0
	}
	return xp/XPPerLevel + 1
}

// IntoLevel は現在レベル内で獲得済みのXP
func IntoLevel(xp int) int {
	if xp < 0 {
		xp = 0
	}
	return xp - (Level(xp)-1)*XPPerLevel
}

// PercentToNext は次レベルまでの進捗率 (0.0〜1.0)
func PercentToNext(xp int) float64 {
	return float64(IntoLevel(xp)) / float64(XPPerLevel)
}

// Add はXPを加算し、新しい累計XPとレベルを返す。負の加算は0として扱う
// （台帳XPは単調非減少）。
func Add(currentXP, earned int) (xp, level int) {
	if currentXP < 0 {
		currentXP = 0
	}
	if earned < 0 {
		earned = 0
	}
	xp = currentXP + earned
	return xp, Level(xp)
}
