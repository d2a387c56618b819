package core

import (
	"regexp"
	"strings"
)

type skillPattern struct {
	name string
	re   *regexp.Regexp
}

// Patterns are matched against lowercased text. RE2 has no \b around symbols,
// so names ending in punctuation use explicit non-word guards.
var skillPatterns = []skillPattern{
	// Languages
	{"Python", regexp.MustCompile(`\bpython\b`)},
	{"Java", regexp.MustCompile(`\bjava\b`)},
	{"JavaScript", regexp.MustCompile(`\bjavascript\b|\bjs\b`)},
	{"TypeScript", regexp.MustCompile(`\btypescript\b|\bts\b`)},
	{"C++", regexp.MustCompile(`(^|[^a-z0-9])c\+\+([^a-z0-9+]|$)`)},
	{"C#", regexp.MustCompile(`(^|[^a-z0-9])c#([^a-z0-9]|$)`)},
	{"Go", regexp.MustCompile(`\bgolang\b|\bgo\b`)},
	{"Rust", regexp.MustCompile(`\brust\b`)},
	{"Ruby", regexp.MustCompile(`\bruby\b`)},
	{"PHP", regexp.MustCompile(`\bphp\b`)},
	{"Swift", regexp.MustCompile(`\bswift\b`)},
	{"Kotlin", regexp.MustCompile(`\bkotlin\b`)},
	{"Scala", regexp.MustCompile(`\bscala\b`)},

	// ML / AI
	{"TensorFlow", regexp.MustCompile(`\btensorflow\b`)},
	{"PyTorch", regexp.MustCompile(`\bpytorch\b`)},
	{"Keras", regexp.MustCompile(`\bkeras\b`)},
	{"Scikit-learn", regexp.MustCompile(`\bscikit-learn\b|\bsklearn\b`)},
	{"Hugging Face", regexp.MustCompile(`\bhugging\s*face\b|\btransformers\b`)},
	{"LangChain", regexp.MustCompile(`\blangchain\b`)},
	{"OpenAI", regexp.MustCompile(`\bopenai\b`)},
	{"RAG", regexp.MustCompile(`\brag\b|\bretrieval.{0,20}generation\b`)},
	{"LLM", regexp.MustCompile(`\bllms?\b|\blarge\s+language\s+model`)},
	{"Machine Learning", regexp.MustCompile(`\bmachine\s+learning\b`)},
	{"Deep Learning", regexp.MustCompile(`\bdeep\s+learning\b`)},
	{"NLP", regexp.MustCompile(`\bnlp\b|\bnatural\s+language\s+processing\b`)},

	// Web
	{"React", regexp.MustCompile(`\breact\b`)},
	{"Angular", regexp.MustCompile(`\bangular\b`)},
	{"Vue.js", regexp.MustCompile(`\bvue\.?js\b|\bvue\b`)},
	{"Next.js", regexp.MustCompile(`\bnext\.?js\b`)},
	{"Node.js", regexp.MustCompile(`\bnode\.?js\b`)},
	{"Django", regexp.MustCompile(`\bdjango\b`)},
	{"Flask", regexp.MustCompile(`\bflask\b`)},
	{"FastAPI", regexp.MustCompile(`\bfastapi\b`)},
	{"Spring", regexp.MustCompile(`\bspring\b`)},

	// Cloud / DevOps
	{"AWS", regexp.MustCompile(`\baws\b|\bamazon\s+web\s+services\b`)},
	{"Azure", regexp.MustCompile(`\bazure\b`)},
	{"GCP", regexp.MustCompile(`\bgcp\b|\bgoogle\s+cloud\b`)},
	{"Docker", regexp.MustCompile(`\bdocker\b`)},
	{"Kubernetes", regexp.MustCompile(`\bkubernetes\b|\bk8s\b`)},
	{"Jenkins", regexp.MustCompile(`\bjenkins\b`)},
	{"GitHub Actions", regexp.MustCompile(`\bgithub\s+actions\b`)},
	{"Terraform", regexp.MustCompile(`\bterraform\b`)},
	{"Ansible", regexp.MustCompile(`\bansible\b`)},

	// Databases
	{"SQL", regexp.MustCompile(`\bsql\b`)},
	{"PostgreSQL", regexp.MustCompile(`\bpostgresql\b|\bpostgres\b`)},
	{"MySQL", regexp.MustCompile(`\bmysql\b`)},
	{"MongoDB", regexp.MustCompile(`\bmongodb\b|\bmongo\b`)},
	{"Redis", regexp.MustCompile(`\bredis\b`)},
	{"Elasticsearch", regexp.MustCompile(`\belasticsearch\b`)},
	{"Cassandra", regexp.MustCompile(`\bcassandra\b`)},
	{"DynamoDB", regexp.MustCompile(`\bdynamodb\b`)},

	// Data engineering
	{"Spark", regexp.MustCompile(`\bspark\b|\bpyspark\b`)},
	{"Hadoop", regexp.MustCompile(`\bhadoop\b`)},
	{"Airflow", regexp.MustCompile(`\bairflow\b`)},
	{"Kafka", regexp.MustCompile(`\bkafka\b`)},
	{"Pandas", regexp.MustCompile(`\bpandas\b`)},
	{"NumPy", regexp.MustCompile(`\bnumpy\b`)},

	// MLOps
	{"MLflow", regexp.MustCompile(`\bmlflow\b`)},
	{"Kubeflow", regexp.MustCompile(`\bkubeflow\b`)},
	{"SageMaker", regexp.MustCompile(`\bsagemaker\b`)},
	{"Vertex AI", regexp.MustCompile(`\bvertex\s+ai\b`)},

	// Tooling and process
	{"Git", regexp.MustCompile(`\bgit\b`)},
	{"GitHub", regexp.MustCompile(`\bgithub\b`)},
	{"GitLab", regexp.MustCompile(`\bgitlab\b`)},
	{"Jira", regexp.MustCompile(`\bjira\b`)},
	{"Agile", regexp.MustCompile(`\bagile\b`)},
	{"Scrum", regexp.MustCompile(`\bscrum\b`)},
	{"CI/CD", regexp.MustCompile(`\bci/cd\b|\bcontinuous\s+integration\b`)},
}

// ExtractSkills returns the known skills mentioned in text, sorted.
func ExtractSkills(text string) []string {
	if text == "" {
		return nil
	}
	lower := strings.ToLower(text)
	var found []string
	for _, p := range skillPatterns {
		if p.re.MatchString(lower) {
			found = append(found, p.name)
		}
	}
	return NormalizeSkills(found)
}
