package employee

// SeedEmployees はスロットが空または破損しているときに使う初期データを返します。
func SeedEmployees() []Employee {
	return []Employee{
		{ID: "1", Fields: Fields{
			Name: "田中 太郎", Department: "営業部", Position: "部長",
			Email: "tanaka@company.com", Phone: "090-1234-5678",
			EmploymentType: EmploymentFullTime, HireDate: "2020-04-01",
			Status: StatusActive, AccessRole: AccessAdmin,
		}},
		{ID: "2", Fields: Fields{
			Name: "佐藤 花子", Department: "開発部", Position: "エンジニア",
			Email: "sato@company.com", Phone: "090-2345-6789",
			EmploymentType: EmploymentFullTime, HireDate: "2021-07-15",
			Status: StatusActive, AccessRole: AccessStandard,
		}},
		{ID: "3", Fields: Fields{
			Name: "鈴木 次郎", Department: "総務部", Position: "主任",
			Email: "suzuki@company.com", Phone: "090-3456-7890",
			EmploymentType: EmploymentContract, HireDate: "2019-10-01",
			Status: StatusActive, AccessRole: AccessStandard,
		}},
		{ID: "4", Fields: Fields{
			Name: "高橋 美咲", Department: "マーケティング部", Position: "スペシャリスト",
			Email: "takahashi@company.com", Phone: "090-4567-8901",
			EmploymentType: EmploymentFullTime, HireDate: "2022-02-01",
			Status: StatusActive, AccessRole: AccessStandard,
		}},
		{ID: "5", Fields: Fields{
			Name: "山田 孝志", Department: "営業部", Position: "課長",
			Email: "yamada@company.com", Phone: "090-5678-9012",
			EmploymentType: EmploymentFullTime, HireDate: "2018-08-20",
			Status: StatusSeparated, AccessRole: AccessStandard,
		}},
	}
}
