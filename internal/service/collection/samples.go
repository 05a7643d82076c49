package collection

import "github.com/davidleathers/aire-backend/internal/domain/risk"

// sampleData is served whenever a collector has no live data.
var sampleData = map[Key][]risk.Record{
	{risk.DomainAI, risk.KindIncident}: {
		incident("AI Chatbot Generates Harmful Content", "An AI chatbot produced inappropriate responses leading to user distress.", "2023-01-15", risk.DomainAI, 0.5),
		incident("Autonomous Vehicle Accident", "Self-driving car caused collision due to software error.", "2023-02-20", risk.DomainAI, 0.8),
		incident("Facial Recognition False Positive", "AI system misidentified individual leading to wrongful arrest.", "2023-03-10", risk.DomainAI, 0.7),
	},
	{risk.DomainAI, risk.KindBenchmark}: {
		benchmark("ImageNet Accuracy", "Top-1 Accuracy", 85.5, risk.DomainAI),
		benchmark("GLUE Score", "Average Score", 92.3, risk.DomainAI),
		benchmark("Safety Benchmark", "Harm Score", 15.2, risk.DomainAI),
	},
	{risk.DomainAI, risk.KindEvaluation}: {
		evaluation("Bias Audit", 7.5, risk.DomainAI, "2023-04-01"),
		evaluation("Safety Review", 8.2, risk.DomainAI, "2023-05-15"),
	},

	{risk.DomainBio, risk.KindIncident}: {
		incident("Pathogen Lab Leak", "Accidental release of dangerous pathogen from lab.", "2022-12-01", risk.DomainBio, 0.9),
		incident("Biosecurity Breach", "Unauthorized access to biological materials.", "2023-01-20", risk.DomainBio, 0.6),
	},
	{risk.DomainBio, risk.KindBenchmark}: {
		benchmark("Pathogen Detection Accuracy", "Sensitivity", 95.0, risk.DomainBio),
		benchmark("Vaccine Efficacy", "Effectiveness Rate", 85.5, risk.DomainBio),
	},
	{risk.DomainBio, risk.KindEvaluation}: {
		evaluation("Biosecurity Audit", 8.0, risk.DomainBio, "2023-06-01"),
		evaluation("Risk Assessment", 7.8, risk.DomainBio, "2023-07-15"),
	},

	{risk.DomainLossOfControl, risk.KindIncident}: {
		incident("Financial System Crash", "Global financial system collapse due to algorithmic trading errors.", "2008-09-15", risk.DomainLossOfControl, 1.0),
		incident("Power Grid Failure", "Nationwide blackout caused by cascading system failures.", "2021-02-15", risk.DomainLossOfControl, 0.9),
	},
	{risk.DomainLossOfControl, risk.KindBenchmark}: {
		benchmark("Systemic Risk Index", "Risk Score", 45.2, risk.DomainLossOfControl),
		benchmark("Infrastructure Resilience", "Uptime Percentage", 99.5, risk.DomainLossOfControl),
	},
	{risk.DomainLossOfControl, risk.KindEvaluation}: {
		evaluation("Systemic Risk Assessment", 6.5, risk.DomainLossOfControl, "2023-08-01"),
		evaluation("Control Systems Audit", 8.5, risk.DomainLossOfControl, "2023-09-15"),
	},
}

// Samples returns a copy of the sample set for key.
func Samples(key Key) []risk.Record {
	return risk.CloneAll(sampleData[key])
}

func incident(title, description, date string, d risk.Domain, severity float64) risk.Record {
	return risk.Record{
		risk.FieldTitle:       title,
		risk.FieldDescription: description,
		risk.FieldDate:        date,
		risk.FieldCategory:    string(d),
		risk.FieldSeverity:    severity,
	}
}

func benchmark(name, metric string, value float64, d risk.Domain) risk.Record {
	return risk.Record{
		risk.FieldName:     name,
		risk.FieldMetric:   metric,
		risk.FieldValue:    value,
		risk.FieldCategory: string(d),
	}
}

func evaluation(assessment string, score float64, d risk.Domain, date string) risk.Record {
	return risk.Record{
		risk.FieldAssessment: assessment,
		risk.FieldScore:      score,
		risk.FieldCategory:   string(d),
		risk.FieldDate:       date,
	}
}
