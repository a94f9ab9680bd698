package intent

import "policy_reco/models"

// PreferenceRules 用户偏好文本的识别规则
var PreferenceRules = Rules{
	{models.PolicyTypeEmployment, []string{"취업", "일자리", "채용", "구직", "면접", "인턴", "고용", "재직", "취업지원"}},
	{models.PolicyTypeHousing, []string{"주거", "월세", "전세", "임대", "주택", "보증금", "청년주택"}},
	{models.PolicyTypeStartup, []string{"창업", "스타트업", "사업화", "창업지원", "보육", "액셀러"}},
	{models.PolicyTypeFinance, []string{"대출", "보증", "융자", "금리", "이자", "자금", "한도", "상환"}},
	{models.PolicyTypeTax, []string{"세금", "세액", "공제", "감면", "연말정산", "과세"}},
	{models.PolicyTypeEducation, []string{"교육", "훈련", "과정", "강의", "캠프", "프로그램", "멘토링"}},
}

// PolicyRules 政策归类规则，关键词比 PreferenceRules 略宽
var PolicyRules = Rules{
	{models.PolicyTypeEmployment, []string{"취업", "일자리", "채용", "구직", "면접", "인턴", "직업", "고용", "재직", "취업지원"}},
	{models.PolicyTypeHousing, []string{"주거", "월세", "전세", "임대", "주택", "기숙사", "보증금", "청년주택"}},
	{models.PolicyTypeStartup, []string{"창업", "스타트업", "사업화", "보육", "액셀러", "입주", "창업공간"}},
	{models.PolicyTypeFinance, []string{"대출", "보증", "융자", "금리", "이자", "자금", "한도", "상환"}},
	{models.PolicyTypeTax, []string{"세금", "세액", "공제", "감면", "소득공제", "연말정산"}},
	{models.PolicyTypeEducation, []string{"교육", "훈련", "과정", "강의", "캠프", "프로그램", "멘토링", "컨설팅"}},
}
