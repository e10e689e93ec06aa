package biz

import "strings"

const FoodOther = "기타"

// 顺序即优先级：越具体的关键字越靠前，范围最宽的한식放在最后。
var foodLabels = []struct {
	label    string
	keywords []string
}{
	{"김밥", []string{"김밥", "김밥천국", "김밥나라"}},
	{"치킨", []string{"치킨", "통닭", "닭강정"}},
	{"피자", []string{"피자"}},
	{"햄버거", []string{"버거", "햄버거"}},
	{"일식", []string{"초밥", "스시", "회전초밥", "돈까스", "라멘", "우동", "일식"}},
	{"중식", []string{"중식", "중국", "짜장", "짬뽕", "마라", "훠궈"}},
	{"양식", []string{"파스타", "스테이크", "리조또", "양식", "경양식"}},
	{"횟집", []string{"횟집", "회", "참치", "수산", "어시장"}},
	{"고기", []string{"고기", "갈비", "삼겹", "돼지", "소고기", "한우", "숯불", "바베큐", "불고기"}},
	{"베이커리카페", []string{"베이커리", "제과", "빵집", "파티세리"}},
	{"카페전문점", []string{"카페", "커피", "로스터", "디저트"}},
	{"전통찻집", []string{"전통찻집", "찻집", "다방"}},
	{"술집", []string{"주점", "호프", "포차", "이자카야", "바", "펍"}},
	{"아시아/외국음식", []string{"베트남", "쌀국수", "태국", "팟타이", "인도", "커리", "멕시칸", "타코", "터키", "케밥", "외국", "아시아"}},
	{"분식(기타)", []string{"분식", "떡볶이", "순대", "튀김"}},
	{"한식", []string{"한식", "국밥", "해장국", "백반", "찌개", "김치", "냉면", "칼국수", "비빔밥", "정식", "탕", "찜"}},
}

// FoodLabel 根据原始分类与店名推断展示用的菜系标签。
func FoodLabel(raw, name string) string {
	raw = strings.TrimSpace(raw)
	name = strings.TrimSpace(name)
	if raw == "" && name == "" {
		return FoodOther
	}
	s := raw + " " + name
	for _, fl := range foodLabels {
		for _, k := range fl.keywords {
			if strings.Contains(s, k) {
				return fl.label
			}
		}
	}
	return FoodOther
}
