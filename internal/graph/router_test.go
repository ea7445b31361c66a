package graph

import "testing"

func TestShouldRoute(t *testing.T) {
	tests := []struct {
		question string
		want     bool
		wantTerm string
	}{
		{"Compare food vs transport", true, "compare"},
		{"top 5 merchants this year", true, "top"},
		{"Сравни траты на еду и транспорт", true, "сравни"},
		{"Где я трачу больше всего?", true, "больше всего"},
		{"Which merchant do I visit most often?", true, "most"},
		{"Что я обычно покупаю по выходным?", true, "обычно"},
		{"Groceries vs restaurants", true, "vs"},
		{"How much did I spend on groceries in January?", false, ""},
		{"Какой у меня баланс?", false, ""},
		{"", false, ""},
	}

	for _, tt := range tests {
		got, term := ShouldRoute(tt.question)
		if got != tt.want || term != tt.wantTerm {
			t.Errorf("ShouldRoute(%q) = %v, %q, want %v, %q", tt.question, got, term, tt.want, tt.wantTerm)
		}
	}
}
