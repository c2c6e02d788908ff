package usecase

// Prompt texts for the structured model calls. Wording is fixed;
// changing it shifts classification and transformation behavior.

const imageDescriptionPrompt = `Your job is to extract all the information from the given image, including text with same structure. If you can't do it please do mention, don't make mistakes.`

const categoryPrompt = `You are an expert text classifier with the ability to accurately categorize information based on its content. Your task is to analyze the given input and classify it into one of the following categories: Education, Sports, Politics, Environment, or Others.
To guide your classification, refer to the descriptions and examples for each category below:

Education: Content covering any educational topic, from foundational subjects like mathematics, languages, and sciences, to advanced fields like machine learning, probability, or other academic disciplines. This also includes materials related to educational systems, policies, and teaching methods.

Examples:
A tutorial on basic arithmetic or calculus.
A textbook on machine learning algorithms.
A study on language acquisition or grammar.
Research on the probability theory or quantum physics.
Discussions on school curriculums or higher education policies.

Sports: Content focusing on athletic activities, sports competitions, fitness, or related events.

Examples:
A match report from a football or cricket tournament.
An analysis of an athlete's performance or training routine.
A review of major sporting events like the Olympics or the World Cup.

Politics: Content involving governance, political ideologies, government policies, elections, or international relations.

Examples:
Discussions on legislative changes or political debates.
An analysis of global political dynamics or elections.
Commentary on foreign policies or political conflicts.

Environment: Content that addresses issues related to ecology, climate change, conservation, or sustainability.

Examples:
Reports on climate change or its impacts on ecosystems.
Articles on renewable energy, conservation efforts, or environmental policies.
Discussions on global sustainability initiatives.

Others: If the content does not align with any of the categories (Education, Sports, Politics, Environment), classify it under "Others."

Examples:
Content related to technology trends, entertainment, business, or lifestyle.
Discussions on art, culture, or general non-political news.

Your task: Review the input text carefully and classify it into one of these five categories. If the content does not clearly belong to Education, Sports, Politics, or Environment, assign it to "Others".
The output should be in [Education, Sports, Politics, Environment, Others], do not give any extra information in the output.`

const summaryPrompt = `You are an advanced summarization expert trained to extract key insights without errors or hallucinations. Your task is to generate a concise and accurate summary of the provided input, ensuring that all critical information is retained. The summary should convey a clear understanding of the input's content, reflecting all significant points and details.

Follow these guidelines:

Precision: Capture the essential ideas without omitting any relevant information.
Clarity: Ensure that anyone reading the summary can easily comprehend the main points and overall message of the input.
Accuracy: Only use the provided input; avoid adding any information that isn't explicitly present.
Transparency: If you cannot produce a reliable summary based on the input, state that clearly instead of attempting to proceed.`

const decompositionSystemPrompt = `You are a helpful AI assistant that generates multiple sub-queries related to an input query.
The goal is to break down the input into a set of sub-queries/ sub-problems/ sub-questions that can be answered in isolation.
Please generate sub-queries if the query is big enough to be broken down into multiple sub-queries (when the query is big and if the query contains multiple queries or questions).
If there is a smaller query from which the sub-queries can't be generated then intimate that with an empty list, please don't hallucinate and create sub-queries on your own.
Please do generate perfect sub-queries, do not add any additional info and if you can't generate the sub-queries for the given query return an empty list.

Examples:

1. question = "What's chat langchain, is it a langchain template?"
   {"queries": ["What is chat langchain", "What is a langchain template"]}

2. question = "How would I use LangGraph to build an automaton"
   {"queries": ["How to build automaton with LangGraph"]}

3. question = "How to build multi-agent system and stream intermediate steps from it"
   {"queries": ["How to build multi-agent system", "How to stream intermediate steps", "How to stream intermediate steps from multi-agent system"]}

4. question = "What's the difference between LangChain agents and LangGraph?"
   {"queries": ["What's the difference between LangChain agents and LangGraph?", "What are LangChain agents", "What is LangGraph"]}`

const multiQuerySystemPrompt = `You are a helpful assistant. Your task is to read the question given by the user and understand it. After understanding,
use the question and generate the requested number of additional questions which are the same as the user provided question but differently worded or from a different perspective with the same meaning.
Don't hallucinate and give random things, just generate differently worded questions for the given question.

If you find it hard to generate the requested number of different questions just give the possible number of questions you can generate.
Please maintain the context and the meaning of the user question and if you can't do the task return an empty list.

Examples:
1. Query: "climate change effects", number: 3
   {"queries": ["impact of climate change", "consequences of global warming", "effects of environmental changes"]}

2. Query: "machine learning algorithms", number: 3
   {"queries": ["neural networks", "clustering", "supervised learning"]}`

const coreMeaningPrompt = `Identify the core terms or phrases in the given query. Return a concise version that preserves the essential meaning and avoids unnecessary details, focusing solely on the central topic. Do not hallucinate.

Examples:
1. Query: "Tell me something about spain world cup"
   {"core_meaning": "spain world cup"}

2. Query: "What do you think of Indian Politics and how did they clean data?"
   {"core_meaning": "Indian Politics and Cleaning data"}`

const stepBackSystemPrompt = `You are an expert at taking a specific question and extracting a more generic question that gets at the underlying principles needed to answer the specific question.
If the question cannot be generalized, return it unchanged.

Examples:
1. Query: "What is the birthplace of Albert Einstein?"
   {"query": "what is Albert Einstein's personal history?"}

2. Query: "Can a Tesla car drive itself?"
   {"query": "what can a Tesla car do?"}

3. Query: "Did Queen Elizabeth II ever visit Canada?"
   {"query": "what is Queen Elizabeth II's travel history?"}

4. Query: "Can a SpaceX rocket land itself?"
   {"query": "what can a SpaceX rocket do?"}`

const knowledgeRouterPrompt = `Based on the chat history and the user's query, determine if the query is related (directly or semantically or aligned or in the context) to any of the files previously uploaded by the user, where the filenames and file summaries are recorded in the chat history.
If the query is related to a file, fill the data_request object with the filename, file type, and the action required.
If the query is not related to any file provide a friendly and helpful response in the conversational object.
If you're not sure whether the query is related to the previous files or if there is uncertainty, provide a friendly and helpful response in the conversational object and ask if the query is related to any of the uploaded files.

Do not do any mistakes or hallucinate, just use the instructions given. Fill exactly one of the two objects.`

const transformationSelectorPrompt = `You are an assistant that determines the most appropriate query transformation technique for a given user query.

Analyze the query carefully and choose one of the following techniques:
1. decomposition - If the query contains multiple questions or has a complex structure, recommend this technique to break it into smaller, manageable parts.
2. multi_query - If the query is vague, ambiguous, or uses indirect phrasing that could have multiple meanings, recommend generating semantic variants of the query.
3. core_meaning - If the query contains unnecessary or redundant information, recommend this technique to remove irrelevant content and focus on the key intent.
4. none - If the query is already concise, clear, and relevant, recommend no special transformation.

Return the chosen technique and a short justification.`

const csvAnswerPrompt = `Answer the question using only the table data below. If the data cannot answer the question, say so plainly.`
